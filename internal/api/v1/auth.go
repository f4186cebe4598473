package v1

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/gosuda/growplate/internal/domain"
)

type LoginInput struct {
	Body struct {
		Email    string `json:"email" maxLength:"255" doc:"Staff email"`
		Password string `json:"password" minLength:"1" maxLength:"128" doc:"Password"` //nolint:gosec // G117: login credential DTO
	}
}

type TokenPair struct {
	AccessToken  string `json:"access_token"`  //nolint:gosec // G117: auth response DTO
	RefreshToken string `json:"refresh_token"` //nolint:gosec // G117: auth response DTO
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in" doc:"Access token lifetime in seconds"`
}

type RefreshInput struct {
	Body struct {
		RefreshToken string `json:"refresh_token" minLength:"1" doc:"Refresh token"` //nolint:gosec // G117: token refresh DTO
	}
}

type AccessToken struct {
	AccessToken string `json:"access_token"` //nolint:gosec // G117: auth response DTO
	TokenType   string `json:"token_type"`
}

type CreateUserInput struct {
	Body struct {
		Email    string `json:"email" maxLength:"255" doc:"Staff email"`
		Password string `json:"password" maxLength:"128" doc:"Initial password"` //nolint:gosec // G117: credential DTO
		Name     string `json:"name" doc:"Display name"`
		Role     string `json:"role" enum:"owner,manager,staff" doc:"Staff role"`
	}
}

// RegisterAuthRoutes registers login and token refresh for the tenant the
// request host resolves to.
func RegisterAuthRoutes(api huma.API, authSvc AuthService) {
	huma.Register(api, huma.Operation{
		OperationID: "login",
		Method:      http.MethodPost,
		Path:        "/auth/login",
		Summary:     "Login with email and password",
		Tags:        []string{"Auth"},
	}, func(ctx context.Context, input *LoginInput) (*Output[TokenPair], error) {
		t, err := currentTenant(ctx)
		if err != nil {
			return nil, err
		}

		tokens, err := authSvc.Login(ctx, t.ID, input.Body.Email, input.Body.Password)
		if err != nil {
			return nil, apiError(err, "user")
		}

		return ok(TokenPair{
			AccessToken:  tokens.AccessToken,
			RefreshToken: tokens.RefreshToken,
			TokenType:    "Bearer",
			ExpiresIn:    int64(tokens.ExpiresIn.Seconds()),
		}), nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "refresh-token",
		Method:      http.MethodPost,
		Path:        "/auth/refresh",
		Summary:     "Refresh access token",
		Tags:        []string{"Auth"},
	}, func(ctx context.Context, input *RefreshInput) (*Output[AccessToken], error) {
		t, err := currentTenant(ctx)
		if err != nil {
			return nil, err
		}

		access, err := authSvc.RefreshToken(ctx, t.ID, input.Body.RefreshToken)
		if err != nil {
			// Any refresh failure, including another tenant's token, is a 401.
			return nil, huma.Error401Unauthorized("invalid or expired refresh token")
		}

		return ok(AccessToken{AccessToken: access, TokenType: "Bearer"}), nil
	})
}

// RegisterUserRoutes registers owner-only staff account creation.
func RegisterUserRoutes(api huma.API, authSvc AuthService, rec EventRecorder) {
	huma.Register(api, huma.Operation{
		OperationID:   "create-user",
		Method:        http.MethodPost,
		Path:          "/auth/users",
		Summary:       "Create a staff account",
		Tags:          []string{"Auth"},
		DefaultStatus: http.StatusCreated,
	}, func(ctx context.Context, input *CreateUserInput) (*Output[*domain.User], error) {
		t, err := currentTenant(ctx)
		if err != nil {
			return nil, err
		}

		b := input.Body
		u, err := authSvc.CreateUser(ctx, t.ID, b.Email, b.Password, b.Name, b.Role)
		if err != nil {
			return nil, apiError(err, "user")
		}

		rec.Record(ctx, domain.Event{
			Type:     domain.EventStaffCreated,
			TenantID: t.ID,
			ActorID:  actorID(ctx),
			EntityID: u.ID,
			Data:     map[string]any{"role": u.Role},
		})

		return okMsg(u, "user created"), nil
	})
}
