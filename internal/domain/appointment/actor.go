package appointment

import "fmt"

type ActorKind string

const (
	ActorUser      ActorKind = "user"
	ActorCounselor ActorKind = "counselor"
	ActorSystem    ActorKind = "system"
)

// Actor is whoever issues a cancellation.
type Actor struct {
	Kind   ActorKind
	UserID uint
}

var System = Actor{Kind: ActorSystem}

func UserActor(id uint) Actor {
	return Actor{Kind: ActorUser, UserID: id}
}

func (a Actor) String() string {
	if a.Kind == ActorSystem {
		return string(ActorSystem)
	}
	return fmt.Sprintf("%s:%d", a.Kind, a.UserID)
}
