package middleware

import (
	"context"
	"net/http"
	"path/filepath"
	"runtime/debug"
	"strings"

	"go.uber.org/zap"

	"github.com/sunr3d/explorer/internal/config"
	"github.com/sunr3d/explorer/internal/format"
	"github.com/sunr3d/explorer/models"
)

func ReqLogger(log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			log.Info("Входящий HTTP запрос",
				zap.String("method", r.Method),
				zap.String("url", r.URL.Path),
				zap.String("accept", r.Header.Get("Accept")),
			)
			next.ServeHTTP(w, r)
		})
	}
}

// BodyValidator rejects POST bodies that are neither JSON nor a form.
func BodyValidator() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodPost && requiresBody(r.URL.Path) {
				ct := r.Header.Get("Content-Type")
				base := strings.ToLower(strings.TrimSpace(strings.Split(ct, ";")[0]))
				switch base {
				case "application/json", "application/x-www-form-urlencoded", "multipart/form-data":
				default:
					http.Error(w, "Неверный Content-Type, ожидается application/json или форма", http.StatusUnsupportedMediaType)
					return
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

func requiresBody(path string) bool {
	endpoints := map[string]bool{
		"/archive": true,
	}

	return endpoints[path]
}

func Recovery(log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					if err == http.ErrAbortHandler {
						panic(err)
					}
					log.Error("Паника в обработчике запроса",
						zap.Any("error", err),
						zap.String("stack", string(debug.Stack())),
						zap.String("url", r.URL.Path),
						zap.String("method", r.Method),
					)

					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					w.Write([]byte(`{"error": "Внутренняя ошибка сервера"}`))
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

type userKey struct{}

// User resolves the user from the header set by the authenticating proxy in
// front of the explorer.
func User(cfg *config.Config) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			username := strings.TrimSpace(r.Header.Get(cfg.UserHeader))
			if username == "" {
				http.Error(w, "Требуется аутентификация", http.StatusUnauthorized)
				return
			}
			if strings.ContainsAny(username, `/\`) || username == "." || username == ".." {
				http.Error(w, "Некорректное имя пользователя", http.StatusBadRequest)
				return
			}

			user := &models.User{
				Username: username,
				Home:     filepath.Join(cfg.RootDir, username),
				Archive:  filepath.Join(cfg.ArchivesDir, username),
			}

			ctx := context.WithValue(r.Context(), userKey{}, user)
			ctx = format.WithLocals(ctx, format.Locals{"user": username})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func UserFrom(ctx context.Context) (*models.User, bool) {
	u, ok := ctx.Value(userKey{}).(*models.User)
	return u, ok
}

// WithUser is used by handlers mounted without the User middleware.
func WithUser(ctx context.Context, user *models.User) context.Context {
	return context.WithValue(ctx, userKey{}, user)
}
