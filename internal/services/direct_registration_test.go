package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ananth-NQI/clubhub-backend/internal/models"
	"github.com/Ananth-NQI/clubhub-backend/internal/storage"
)

func directParticipant(name, email string) DirectParticipant {
	return DirectParticipant{
		Name:       name,
		Enrollment: "EN-" + name,
		Email:      email,
		Department: "CE",
		Program:    "B.Tech",
		Semester:   5,
	}
}

func TestDirectRegister_IndividualEventConfirmsImmediately(t *testing.T) {
	eachStore(t, func(t *testing.T, env *testEnv) {
		ctx := context.Background()

		result, err := env.direct.Register(ctx, DirectRequest{
			EventID: env.individualEvent.ID,
			Leader:  directParticipant("Asha", "Asha@Inst.edu"),
		})
		require.NoError(t, err)

		reg := result.Registration
		assert.Equal(t, models.RegistrationStatusConfirmed, reg.RegistrationStatus)
		assert.Equal(t, models.RegistrationSourceDirect, reg.Source)
		assert.Equal(t, "asha@inst.edu", reg.TeamLeaderEmail)
		assert.True(t, reg.Verified)
		assert.Empty(t, result.Issuance)
		assert.Zero(t, env.mailer.count())
		assert.Equal(t, 1, env.publisher.count())

		_, err = env.direct.Register(ctx, DirectRequest{
			EventID: env.individualEvent.ID,
			Leader:  directParticipant("Asha", "asha@inst.edu"),
		})
		var registered *AlreadyRegisteredError
		require.ErrorAs(t, err, &registered)
		assert.Equal(t, "asha@inst.edu", registered.Identifier)
	})
}

func TestDirectRegister_Validation(t *testing.T) {
	env := newTestEnv(t, storage.NewMemoryStore())
	ctx := context.Background()

	outside := directParticipant("Ravi", "ravi@gmail.com")
	noProgram := directParticipant("Ravi", "ravi@inst.edu")
	noProgram.Program = ""
	badSemester := directParticipant("Ravi", "ravi@inst.edu")
	badSemester.Semester = 9

	tests := []struct {
		name  string
		req   DirectRequest
		field string
	}{
		{
			name:  "email outside the institution",
			req:   DirectRequest{EventID: env.teamEvent.ID, Leader: outside},
			field: "leader.email",
		},
		{
			name:  "missing program",
			req:   DirectRequest{EventID: env.teamEvent.ID, Leader: noProgram},
			field: "leader.program",
		},
		{
			name:  "semester out of range",
			req:   DirectRequest{EventID: env.teamEvent.ID, Leader: badSemester},
			field: "leader.semester",
		},
		{
			name: "member email outside the institution",
			req: DirectRequest{
				EventID: env.teamEvent.ID,
				Leader:  directParticipant("Asha", "asha@inst.edu"),
				Members: []DirectParticipant{outside},
			},
			field: "members[0].email",
		},
		{
			name: "duplicate email",
			req: DirectRequest{
				EventID: env.teamEvent.ID,
				Leader:  directParticipant("Asha", "asha@inst.edu"),
				Members: []DirectParticipant{directParticipant("Other", "ASHA@inst.edu")},
			},
			field: "members",
		},
		{
			name: "team too large",
			req: DirectRequest{
				EventID: env.individualEvent.ID,
				Leader:  directParticipant("Asha", "asha@inst.edu"),
				Members: []DirectParticipant{directParticipant("Ravi", "ravi@inst.edu")},
			},
			field: "members",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.direct.Register(ctx, tt.req)
			var validation *ValidationError
			require.ErrorAs(t, err, &validation)
			assert.Equal(t, tt.field, validation.Field)
		})
	}

	regs, err := env.store.ListRegistrations(ctx, models.RegistrationFilter{})
	require.NoError(t, err)
	assert.Empty(t, regs)
}

func TestDirectRegister_TeamConfirmsAfterEveryLink(t *testing.T) {
	eachStore(t, func(t *testing.T, env *testEnv) {
		ctx := context.Background()

		result, err := env.direct.Register(ctx, DirectRequest{
			EventID: env.teamEvent.ID,
			Leader:  directParticipant("Asha", "asha@inst.edu"),
			Members: []DirectParticipant{directParticipant("Ravi", "ravi@inst.edu"), {}},
		})
		require.NoError(t, err)
		reg := result.Registration
		assert.Equal(t, models.RegistrationStatusPending, reg.RegistrationStatus)
		require.Len(t, reg.TeamMembers, 1)
		require.Len(t, result.Issuance, 2)
		assert.Zero(t, result.DeliveryFailures())

		tokens, err := env.store.ListVerificationTokens(ctx, reg.ID)
		require.NoError(t, err)
		require.Len(t, tokens, 2)

		secrets := map[string]string{}
		for _, token := range tokens {
			assert.Equal(t, env.clock.Now().Add(VerificationLinkValidity), token.ExpiresAt)
			secrets[token.Email] = token.Token
		}
		ashaMail := env.mailer.messagesTo("asha@inst.edu")
		require.Len(t, ashaMail, 1)
		assert.Contains(t, ashaMail[0].HTML, "https://clubs.inst.edu/api/verify-email?token="+secrets["asha@inst.edu"])

		verification, err := env.direct.VerifyEmailToken(ctx, secrets["asha@inst.edu"])
		require.NoError(t, err)
		assert.False(t, verification.AllVerified)
		assert.True(t, verification.Registration.TeamLeaderVerified)

		// Following the same link again is harmless
		verification, err = env.direct.VerifyEmailToken(ctx, secrets["asha@inst.edu"])
		require.NoError(t, err)
		assert.False(t, verification.AllVerified)

		verification, err = env.direct.VerifyEmailToken(ctx, secrets["ravi@inst.edu"])
		require.NoError(t, err)
		assert.True(t, verification.AllVerified)
		assert.Equal(t, models.RegistrationStatusConfirmed, verification.Registration.RegistrationStatus)
		assert.True(t, verification.Registration.AllMembersVerified)
		assert.Equal(t, 1, env.publisher.count())

		verification, err = env.direct.VerifyEmailToken(ctx, secrets["ravi@inst.edu"])
		require.NoError(t, err)
		assert.True(t, verification.AllVerified)
		assert.Equal(t, 1, env.publisher.count())
	})
}

func TestVerifyEmailToken_UnknownOrExpired(t *testing.T) {
	env := newTestEnv(t, storage.NewMemoryStore())
	ctx := context.Background()

	_, err := env.direct.VerifyEmailToken(ctx, "no-such-token")
	assert.ErrorIs(t, err, ErrNotFound)

	result, err := env.direct.Register(ctx, DirectRequest{
		EventID: env.teamEvent.ID,
		Leader:  directParticipant("Asha", "asha@inst.edu"),
	})
	require.NoError(t, err)
	tokens, err := env.store.ListVerificationTokens(ctx, result.Registration.ID)
	require.NoError(t, err)
	require.Len(t, tokens, 1)

	env.clock.Advance(VerificationLinkValidity + time.Minute)
	_, err = env.direct.VerifyEmailToken(ctx, tokens[0].Token)
	assert.ErrorIs(t, err, ErrNotFound)

	reg, err := env.store.GetRegistration(ctx, result.Registration.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RegistrationStatusPending, reg.RegistrationStatus)
}

func TestDirectRegister_LinkDeliveryFailureIsReported(t *testing.T) {
	env := newTestEnv(t, storage.NewMemoryStore())
	env.mailer.failFor["ravi@inst.edu"] = true

	result, err := env.direct.Register(context.Background(), DirectRequest{
		EventID: env.teamEvent.ID,
		Leader:  directParticipant("Asha", "asha@inst.edu"),
		Members: []DirectParticipant{directParticipant("Ravi", "ravi@inst.edu")},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, result.DeliveryFailures())
	assert.Equal(t, models.RegistrationStatusPending, result.Registration.RegistrationStatus)
}

func TestVerifyEmailToken_MissingMemberTokenHoldsConfirmation(t *testing.T) {
	eachStore(t, func(t *testing.T, env *testEnv) {
		ctx := context.Background()
		deps := env.deps
		deps.Store = failingTokenStore{Store: env.store, failFor: "ravi@inst.edu"}
		direct := NewDirectRegistrationService(deps)

		result, err := direct.Register(ctx, DirectRequest{
			EventID: env.teamEvent.ID,
			Leader:  directParticipant("Asha", "asha@inst.edu"),
			Members: []DirectParticipant{directParticipant("Ravi", "ravi@inst.edu")},
		})
		require.NoError(t, err)
		assert.Equal(t, 1, result.DeliveryFailures())

		tokens, err := env.store.ListVerificationTokens(ctx, result.Registration.ID)
		require.NoError(t, err)
		require.Len(t, tokens, 1)
		assert.Equal(t, "asha@inst.edu", tokens[0].Email)

		verification, err := direct.VerifyEmailToken(ctx, tokens[0].Token)
		require.NoError(t, err)
		assert.False(t, verification.AllVerified)
		assert.Equal(t, models.RegistrationStatusPending, verification.Registration.RegistrationStatus)
		assert.True(t, verification.Registration.TeamLeaderVerified)
		assert.False(t, verification.Registration.TeamMembers[0].Verified)
		assert.Zero(t, env.publisher.count())
	})
}
