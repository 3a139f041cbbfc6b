package middleware

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/dtroode/ansv-auth/internal/apierror"
	"github.com/dtroode/ansv-auth/internal/mocks"
	"github.com/dtroode/ansv-auth/internal/model"
	"github.com/dtroode/ansv-auth/internal/testutil"
)

func TestAuthenticate_AuthFunc(t *testing.T) {
	t.Parallel()

	claims := model.AccessClaims{UserID: uuid.New(), Username: "alice"}

	tests := []struct {
		name         string
		mdAuthHeader string
		verify       bool
		verifyErr    error
		wantCode     codes.Code
	}{
		{
			name:     "missing authorization header",
			wantCode: codes.Unauthenticated,
		},
		{
			name:         "wrong scheme",
			mdAuthHeader: "Basic abc",
			wantCode:     codes.Unauthenticated,
		},
		{
			name:         "invalid token",
			mdAuthHeader: "Bearer invalid",
			verify:       true,
			verifyErr:    apierror.NewErrInvalidAuthorizationToken(),
			wantCode:     codes.Unauthenticated,
		},
		{
			name:         "valid token",
			mdAuthHeader: "Bearer token",
			verify:       true,
			wantCode:     codes.OK,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cm := mocks.NewContextManager(t)
			svc := mocks.NewTokenService(t)
			if tt.verify {
				if tt.verifyErr != nil {
					svc.On("VerifyAccess", mock.Anything, mock.AnythingOfType("string")).
						Return(model.AccessClaims{}, tt.verifyErr).Once()
				} else {
					svc.On("VerifyAccess", mock.Anything, "token").Return(claims, nil).Once()
					cm.On("SetClaimsToContext", mock.Anything, claims).Return(context.Background()).Once()
				}
			}
			m := NewAuthenticate(svc, cm, testutil.MakeNoopLogger())

			ctx := context.Background()
			if tt.mdAuthHeader != "" {
				ctx = metadata.NewIncomingContext(ctx, metadata.Pairs("authorization", tt.mdAuthHeader))
			}

			newCtx, err := m.AuthFunc(ctx)

			if tt.wantCode != codes.OK {
				st, ok := status.FromError(err)
				assert.True(t, ok)
				assert.Equal(t, tt.wantCode, st.Code())
				assert.Nil(t, newCtx)
				return
			}
			assert.NoError(t, err)
			assert.NotNil(t, newCtx)
		})
	}
}
