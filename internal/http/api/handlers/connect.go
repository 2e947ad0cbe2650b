package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
	"golang.org/x/oauth2"

	"github.com/vitalsync/vitalsync/internal/config"
	"github.com/vitalsync/vitalsync/internal/credentials"
	"github.com/vitalsync/vitalsync/internal/security"
	"github.com/vitalsync/vitalsync/internal/whoop"
)

// whoopScopes are the grants the sync pipeline needs. offline yields a
// refresh token.
var whoopScopes = []string{
	"offline",
	"read:profile",
	"read:cycles",
	"read:recovery",
	"read:sleep",
	"read:workout",
}

// ConnectHandler serves the Whoop OAuth authorization flow.
type ConnectHandler struct {
	store    *credentials.Store
	client   *whoop.Client
	oauthCfg *oauth2.Config
	jwtCfg   config.JWTConfig
}

// NewConnectHandler constructs a ConnectHandler.
func NewConnectHandler(store *credentials.Store, client *whoop.Client, whoopCfg config.WhoopConfig, jwtCfg config.JWTConfig) *ConnectHandler {
	return &ConnectHandler{
		store:  store,
		client: client,
		oauthCfg: &oauth2.Config{
			ClientID:     whoopCfg.ClientID,
			ClientSecret: whoopCfg.ClientSecret,
			RedirectURL:  whoopCfg.RedirectURL,
			Scopes:       whoopScopes,
			Endpoint: oauth2.Endpoint{
				AuthURL:  whoopCfg.AuthURL,
				TokenURL: whoopCfg.TokenURL,
			},
		},
		jwtCfg: jwtCfg,
	}
}

// Connect returns the Whoop authorization URL for the authenticated user.
// The state token binds the eventual callback to this user.
func (h *ConnectHandler) Connect(c *gin.Context) {
	userID, ok := UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	state, errSign := security.SignConnectState(userID, h.jwtCfg.Secret)
	if errSign != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "start authorization failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"url": h.oauthCfg.AuthCodeURL(state)})
}

// Callback handles the authorization redirect: it exchanges the code for a
// token pair and stores the credential for the user named by the state token.
func (h *ConnectHandler) Callback(c *gin.Context) {
	if reason := c.Query("error"); reason != "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "authorization denied: " + reason})
		return
	}

	userID, errState := security.ParseConnectState(c.Query("state"), h.jwtCfg.Secret)
	if errState != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid state"})
		return
	}
	code := c.Query("code")
	if code == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing code"})
		return
	}

	token, errExchange := h.oauthCfg.Exchange(c.Request.Context(), code)
	if errExchange != nil {
		log.WithError(errExchange).WithField("user_id", userID).Warn("whoop connect: code exchange failed")
		c.JSON(http.StatusBadGateway, gin.H{"error": "code exchange failed"})
		return
	}

	// The profile lookup is best effort; the credential is still usable for
	// syncing without the remote user ID.
	var whoopUserID *int64
	if profile, errProfile := h.client.UserProfile(c.Request.Context(), token.AccessToken); errProfile == nil {
		whoopUserID = &profile.UserID
	} else {
		log.WithError(errProfile).WithField("user_id", userID).Warn("whoop connect: profile lookup failed")
	}

	expiresIn := int(time.Until(token.Expiry).Seconds())
	if errPut := h.store.Put(c.Request.Context(), userID, token.AccessToken, token.RefreshToken, expiresIn, whoopUserID); errPut != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "store credential failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"connected": true})
}
