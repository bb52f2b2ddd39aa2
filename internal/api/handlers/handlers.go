package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	gorilla "github.com/gorilla/websocket"
	"github.com/homeride/backend/internal/api/dto"
	"github.com/homeride/backend/internal/api/middleware"
	"github.com/homeride/backend/internal/service/chat"
	"github.com/homeride/backend/internal/service/chatbot"
	"github.com/homeride/backend/internal/service/employees"
	notifysvc "github.com/homeride/backend/internal/service/notification"
	ratingsvc "github.com/homeride/backend/internal/service/rating"
	"github.com/homeride/backend/internal/service/rides"
	"github.com/homeride/backend/internal/service/routing"
	apperrors "github.com/homeride/backend/pkg/errors"
	"github.com/homeride/backend/pkg/logger"
	"github.com/homeride/backend/pkg/websocket"
)

// Services are the application services the HTTP layer calls.
// Chatbot may be nil when the assistant is disabled; a nil Maps answers as
// if no maps key were configured.
type Services struct {
	Rides         *rides.Service
	Ratings       *ratingsvc.Service
	Notifications *notifysvc.Service
	Chat          *chat.Service
	Chatbot       *chatbot.Service
	Employees     *employees.Service
	Maps          routing.AddressLookup
}

// Handlers holds all handler dependencies
type Handlers struct {
	Services
	Hub      *websocket.Hub
	Upgrader gorilla.Upgrader
	Logger   *logger.Logger
}

// NewHandlers creates a new Handlers instance
func NewHandlers(services Services, hub *websocket.Hub, log *logger.Logger) *Handlers {
	if log == nil {
		log = logger.NewNop()
	}
	return &Handlers{
		Services: services,
		Hub:      hub,
		Upgrader: gorilla.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// origins are already enforced by the CORS layer and the token
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		Logger: log,
	}
}

// respondError writes err as JSON with the status its AppError carries.
func (h *Handlers) respondError(c *gin.Context, err error) {
	appErr := apperrors.GetAppError(err)
	if appErr.Status >= http.StatusInternalServerError {
		h.Logger.Error("Request failed",
			logger.String("path", c.FullPath()),
			logger.Email(middleware.CallerEmail(c)),
			logger.Err(err),
		)
	}
	c.JSON(appErr.Status, dto.ErrorResponse{Code: appErr.Code, Message: appErr.Message})
}

func (h *Handlers) badRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, dto.ErrorResponse{Code: "BAD_REQUEST", Message: message})
}

// pathID parses the :id parameter, answering 400 when it is not a UUID.
func (h *Handlers) pathID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.badRequest(c, "Invalid id")
		return uuid.Nil, false
	}
	return id, true
}
