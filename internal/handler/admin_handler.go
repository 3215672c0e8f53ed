package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/projektfire/internal/auth"
	"github.com/projektfire/internal/middleware"
	"github.com/projektfire/internal/service"
)

const (
	loginPath = "/panel/login"
	panelPath = "/panel"
)

// ShowLoginPage 渲染登录页面
func (a *API) ShowLoginPage(c *gin.Context) {
	if a.sessionClaims(c) != nil {
		redirectSeeOther(c, panelPath)
		return
	}
	a.renderHTML(c, http.StatusOK, "panel_login.html", gin.H{
		"title": "Logowanie",
	})
}

// Login 处理登录表单：先限流，再记录尝试，最后校验密码。
func (a *API) Login(c *gin.Context) {
	username := c.PostForm("username")
	password := c.PostForm("password")

	user, err := a.auth.Login(c.Request.Context(), c.ClientIP(), username, password)
	if err != nil {
		status := http.StatusInternalServerError
		message := "Logowanie nie powiodło się."
		switch {
		case errors.Is(err, service.ErrLoginRateLimited):
			status = http.StatusTooManyRequests
			message = "Zbyt wiele prób logowania. Spróbuj za 15 minut."
		case errors.Is(err, service.ErrInvalidCredentials):
			status = http.StatusUnauthorized
			message = "Nieprawidłowa nazwa użytkownika lub hasło."
		default:
			a.log.Error().Err(err).Msg("login failed")
		}
		a.renderHTML(c, status, "panel_login.html", gin.H{
			"title":    "Logowanie",
			"error":    message,
			"username": username,
		})
		return
	}

	token, err := a.tokens.Issue(user.ID, user.Username)
	if err != nil {
		a.log.Error().Err(err).Msg("issue session token")
		a.renderHTML(c, http.StatusInternalServerError, "panel_login.html", gin.H{
			"title": "Logowanie",
			"error": "Logowanie nie powiodło się.",
		})
		return
	}

	a.setSessionCookie(c, token, int(a.tokens.TTL().Seconds()))
	a.log.Info().Str("username", user.Username).Str("ip", c.ClientIP()).Msg("admin logged in")
	redirectSeeOther(c, panelPath)
}

// Logout 清除会话 cookie
func (a *API) Logout(c *gin.Context) {
	a.setSessionCookie(c, "", -1)
	redirectSeeOther(c, loginPath)
}

// ShowDashboard 渲染后台主面板
func (a *API) ShowDashboard(c *gin.Context) {
	ctx := c.Request.Context()

	counts, err := a.articles.Counts(ctx)
	if err != nil {
		c.Error(err)
	}
	commentCount, err := a.comments.Count(ctx)
	if err != nil {
		c.Error(err)
	}
	categoryCount, err := a.categories.Count(ctx)
	if err != nil {
		c.Error(err)
	}
	unread, err := a.contact.UnreadCount(ctx)
	if err != nil {
		c.Error(err)
	}
	recent, err := a.articles.ListRecent(ctx)
	if err != nil {
		c.Error(err)
	}

	a.renderHTML(c, http.StatusOK, "panel_dashboard.html", gin.H{
		"title":          "Panel",
		"counts":         counts,
		"commentCount":   commentCount,
		"categoryCount":  categoryCount,
		"unreadMessages": unread,
		"recent":         recent,
	})
}

// AuthRequired 校验会话 token，未登录时跳转到登录页。
func (a *API) AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := a.sessionClaims(c)
		if claims == nil {
			redirectSeeOther(c, loginPath)
			c.Abort()
			return
		}

		exists, err := a.auth.Exists(c.Request.Context(), claims.AdminID)
		if err != nil || !exists {
			a.setSessionCookie(c, "", -1)
			redirectSeeOther(c, loginPath)
			c.Abort()
			return
		}

		c.Set(adminContextKey, claims)
		c.Next()
	}
}

func (a *API) sessionClaims(c *gin.Context) *auth.Claims {
	raw, err := c.Cookie(auth.SessionCookieName)
	if err != nil {
		return nil
	}
	claims, err := a.tokens.Parse(raw)
	if err != nil {
		return nil
	}
	return claims
}

func (a *API) setSessionCookie(c *gin.Context, value string, maxAge int) {
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     auth.SessionCookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   middleware.IsHTTPS(c.Request),
		SameSite: http.SameSiteStrictMode,
	})
}
