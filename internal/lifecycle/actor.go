package lifecycle

import (
	"github.com/campusfind/campusfind-backend/internal/models"
	"github.com/google/uuid"
)

// Actor is the identity performing a transition. It is always passed in
// explicitly; the engine never reads identity from ambient state.
type Actor struct {
	ID   uuid.UUID
	Role string
}

func (a Actor) Known() bool { return a.ID != uuid.Nil }

func (a Actor) IsModerator() bool { return a.Role == models.RoleModerator }
