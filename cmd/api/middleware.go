package main

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"strconv"
	"strings"
)

type contextKey string

const (
	gatewayUserKey contextKey = "gateway_user"
	gatewayRoleKey contextKey = "gateway_role"
)

func (app *application) BasicAuthMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// read the auth header
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				app.unauthorizedBasicErrorResponse(w, r, fmt.Errorf("authorization header is missing"))
				return
			}

			// parse it -> get the base64
			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || parts[0] != "Basic" {
				app.unauthorizedBasicErrorResponse(w, r, fmt.Errorf("authorization header is malformed"))
				return
			}

			// decode it
			decoded, err := base64.StdEncoding.DecodeString(parts[1])
			if err != nil {
				app.unauthorizedBasicErrorResponse(w, r, err)
				return
			}

			// check the credentials
			username := app.config.auth.basic.user
			pass := app.config.auth.basic.pass

			creds := strings.SplitN(string(decoded), ":", 2)
			if len(creds) != 2 || creds[0] != username || creds[1] != pass {
				app.unauthorizedBasicErrorResponse(w, r, fmt.Errorf("invalid credentials"))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// GatewayContextMiddleware lifts the identity headers set by the upstream
// gateway into the request context. Authentication itself happens upstream;
// this service only consumes its result.
func (app *application) GatewayContextMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if raw := r.Header.Get("X-Gateway-User"); raw != "" {
			if userID, err := strconv.ParseInt(raw, 10, 64); err == nil {
				ctx = context.WithValue(ctx, gatewayUserKey, userID)
			}
		}
		if role := r.Header.Get("X-Gateway-Role"); role != "" {
			ctx = context.WithValue(ctx, gatewayRoleKey, role)
		}

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func userIDFromRequest(r *http.Request) (int64, bool) {
	userID, ok := r.Context().Value(gatewayUserKey).(int64)
	return userID, ok
}

func isPrivileged(r *http.Request) bool {
	role, _ := r.Context().Value(gatewayRoleKey).(string)
	return role == "admin"
}
