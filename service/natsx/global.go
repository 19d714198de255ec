package natsx

import (
	"context"
	"errors"
	"log"
	"sync"
)

var (
	globalMgr *NatsManager
	startOnce sync.Once

	mu               sync.Mutex
	pendingRoutes    = make(map[string]NatsxRoute)     // routes cached before start
	pendingHandlers  = make(map[string][]NatsxHandler) // handlers cached before start
	subscribedBizSet = make(map[string]struct{})
	defaultMws       []NatsxMiddleware
)

// UseGlobalMiddlewares configures global middlewares (e.g. idempotency)
// before StartNats.
func UseGlobalMiddlewares(mws ...NatsxMiddleware) {
	mu.Lock()
	defer mu.Unlock()
	defaultMws = append(defaultMws, mws...)
}

// RegisterRoute can be called before or after StartNats; early calls are
// cached and applied at start.
func RegisterRoute(r NatsxRoute) error {
	mu.Lock()
	defer mu.Unlock()
	if globalMgr == nil {
		pendingRoutes[r.Biz] = r
		return nil
	}
	return globalMgr.RegisterRoute(r)
}

// RegisterHandler subscribes h to a biz; early calls are cached.
func RegisterHandler(biz string, h NatsxHandler) error {
	mu.Lock()
	defer mu.Unlock()
	if globalMgr == nil {
		pendingHandlers[biz] = append(pendingHandlers[biz], h)
		return nil
	}
	return subscribeLocked(biz, h)
}

func subscribeLocked(biz string, h NatsxHandler) error {
	if _, ok := subscribedBizSet[biz]; ok {
		return nil
	}
	if err := globalMgr.Subscribe(biz, h); err != nil {
		return err
	}
	subscribedBizSet[biz] = struct{}{}
	return nil
}

// StartNats starts the global manager exactly once and applies cached
// routes and handlers.
func StartNats(cfg ...NatsxConfig) {
	startOnce.Do(func() {
		var c NatsxConfig
		if len(cfg) > 0 {
			c = cfg[0]
		} else {
			c = NatsxConfig{
				Servers: []string{"nats://127.0.0.1:4222"},
				Name:    "global-nats",
			}
		}

		mu.Lock()
		mws := append([]NatsxMiddleware(nil), defaultMws...)
		mu.Unlock()

		mgr, err := NewNatsManager(c, mws...)
		if err != nil {
			log.Fatalf("failed to start NatsManager: %v", err)
		}

		mu.Lock()
		defer mu.Unlock()
		globalMgr = mgr

		for _, r := range pendingRoutes {
			if err := mgr.RegisterRoute(r); err != nil {
				log.Printf("register route biz=%s err=%v", r.Biz, err)
			}
		}
		pendingRoutes = map[string]NatsxRoute{}

		for biz, hs := range pendingHandlers {
			for _, h := range hs {
				if err := subscribeLocked(biz, h); err != nil {
					log.Printf("subscribe biz=%s err=%v", biz, err)
				}
			}
		}
		pendingHandlers = map[string][]NatsxHandler{}
	})
}

// Publish publishes through the global manager.
func Publish(ctx context.Context, biz string, data []byte, hdr map[string]string) error {
	mu.Lock()
	mgr := globalMgr
	mu.Unlock()
	if mgr == nil {
		return errors.New("nats not started")
	}
	return mgr.Publish(ctx, biz, data, hdr)
}

// PublishOnce publishes with a Nats-Msg-Id through the global manager so
// consumers can deduplicate redeliveries.
func PublishOnce(ctx context.Context, biz string, data []byte, hdr map[string]string, msgID string) error {
	mu.Lock()
	mgr := globalMgr
	mu.Unlock()
	if mgr == nil {
		return errors.New("nats not started")
	}
	return mgr.PublishOnce(ctx, biz, data, hdr, msgID)
}

// StopNats drains and closes the global manager.
func StopNats() error {
	mu.Lock()
	mgr := globalMgr
	globalMgr = nil
	mu.Unlock()
	if mgr == nil {
		return nil
	}
	return mgr.Close()
}
