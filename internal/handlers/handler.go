package handlers

import (
	"errors"
	"net/http"

	"agriconnect_back_end/internal/models"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

var errorStatusMap = map[error]int{
	models.ErrMissingWebhookSecret: http.StatusInternalServerError,
	models.ErrVerification:         http.StatusBadRequest,
	models.ErrUnsupportedEvent:     http.StatusBadRequest,
	models.ErrMissingIdentity:      http.StatusBadRequest,

	models.ErrPersistence:   http.StatusInternalServerError,
	models.ErrOrderNotFound: http.StatusNotFound,

	models.ErrInvalidOrder:      http.StatusBadRequest,
	models.ErrEmptyCheckout:     http.StatusBadRequest,
	models.ErrMissingProductRef: http.StatusBadRequest,
}

// Base est embarqué par les handlers de chaque domaine.
type Base struct {
	Log *zap.Logger
}

func NewBase(log *zap.Logger) Base {
	return Base{Log: log}
}

// StatusFor renvoie le code HTTP associé à err, 500 par défaut.
func StatusFor(err error) int {
	for target, status := range errorStatusMap {
		if errors.Is(err, target) {
			return status
		}
	}
	return http.StatusInternalServerError
}

// HandleError répond {"error": ...}. Les erreurs serveur sont loggées et leur
// détail n'est pas renvoyé au client.
func (b Base) HandleError(c *gin.Context, err error) {
	status := StatusFor(err)
	if status >= http.StatusInternalServerError {
		b.Log.Error("❌ Erreur traitement requête",
			zap.String("path", c.FullPath()),
			zap.Error(err))
		c.JSON(status, gin.H{"error": "Erreur serveur"})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

// HandleBindError répond 400 pour un corps JSON illisible.
func (b Base) HandleBindError(c *gin.Context, err error) {
	b.Log.Debug("corps de requête invalide", zap.String("path", c.FullPath()), zap.Error(err))
	c.JSON(http.StatusBadRequest, gin.H{"error": "Requête invalide"})
}
