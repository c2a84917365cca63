package engine

import (
	"sync"

	"github.com/sirupsen/logrus"
)

// Registry maps game types to their engines. The table is fixed at
// construction; a lookup miss is not an error. Games without a registered
// engine simply accept no generic actions, and callers are expected to
// treat the miss as a logged no-op.
type Registry struct {
	mu      sync.RWMutex
	engines map[GameType]Engine
	log     *logrus.Entry
}

// NewRegistry builds a registry pre-populated with the engines this
// repository implements. Additional engines can be registered before the
// session manager starts accepting submissions.
func NewRegistry(log *logrus.Entry) *Registry {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	r := &Registry{
		engines: make(map[GameType]Engine),
		log:     log,
	}
	r.Register(PublicGoods, NewPublicGoodsEngine(DefaultPublicGoodsConfig()))
	return r
}

// Register installs an engine for a game type, replacing any previous one.
func (r *Registry) Register(gt GameType, e Engine) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.engines[gt] = e
}

// Lookup returns the engine for a game type. A miss is logged at debug
// level; the caller decides what a miss means.
func (r *Registry) Lookup(gt GameType) (Engine, bool) {
	r.mu.RLock()
	e, ok := r.engines[gt]
	r.mu.RUnlock()
	if !ok {
		r.log.WithField("game_type", gt).Debug("no engine registered")
	}
	return e, ok
}
