package global

import (
	"context"
	"strings"
	"time"

	mongoutil "github.com/chiendz11/Badminton-manager-microservices-sub002/data/database/mgo/mongoutil"
	"github.com/chiendz11/Badminton-manager-microservices-sub002/logger"
	"github.com/chiendz11/Badminton-manager-microservices-sub002/module/social/model"
	svc "github.com/chiendz11/Badminton-manager-microservices-sub002/module/social/service"
	mgoSrv "github.com/chiendz11/Badminton-manager-microservices-sub002/service/mgo"
	"github.com/chiendz11/Badminton-manager-microservices-sub002/service/natsx"
	redis "github.com/chiendz11/Badminton-manager-microservices-sub002/service/storage/redis"
	"github.com/chiendz11/Badminton-manager-microservices-sub002/tools"
	"github.com/chiendz11/Badminton-manager-microservices-sub002/tools/decode"
	"github.com/chiendz11/Badminton-manager-microservices-sub002/tools/safe"
	ids "github.com/chiendz11/Badminton-manager-microservices-sub002/tools/ids"
)

// Identity event bizs consumed from the NATS bus.
const (
	BizUserCreated = "user.created"
	BizUserUpdated = "user.updated"
)

// ConfigAll boots shared infrastructure in dependency order. Mongo comes up
// asynchronously; callers that need the DB wait on mgoSrv.WaitReady.
func ConfigAll(ctx context.Context) {
	ConfigIds()
	ConfigRedis()
	ConfigMgo(ctx)
	ConfigNats()
}

func ConfigIds() {
	ids.SetNodeID(int64(tools.GetEnvInt("NODE_ID", 1)))
}

func ConfigRedis() {
	cfg := redis.Config{
		Addr:     tools.GetEnv("REDIS_ADDR", "127.0.0.1:6379"),
		Password: tools.GetEnv("REDIS_PASSWORD", ""),
		DB:       tools.GetEnvInt("REDIS_DB", 0),
	}
	if err := redis.InitRedis(cfg); err != nil {
		logger.Errorf("redis init failed: %v", err)
	}
}

func ConfigMgo(ctx context.Context) {
	cfg := &mongoutil.Config{
		Uri:         tools.GetEnv("MONGO_URI", "mongodb://localhost:27017"),
		Database:    tools.GetEnv("MONGO_DATABASE", "socialChat"),
		MaxPoolSize: 20,
		MaxRetry:    3,
	}
	mgoSrv.StartAsync(ctx, cfg)

	safe.Go(func() {
		waitCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		defer cancel()
		if err := mgoSrv.WaitReady(waitCtx, mgoSrv.Manager()); err != nil {
			logger.Errorf("mongo not ready, indexes skipped: %v", err)
			return
		}
		db := mgoSrv.GetDB()
		if err := model.EnsureUserIndexes(ctx, db); err != nil {
			logger.Errorf("ensure user indexes: %v", err)
		}
		if err := model.EnsureFriendshipIndexes(ctx, db); err != nil {
			logger.Errorf("ensure friendship indexes: %v", err)
		}
		if err := model.EnsureConversationIndexes(ctx, db); err != nil {
			logger.Errorf("ensure conversation indexes: %v", err)
		}
		if err := model.EnsureMessageIndexes(ctx, db); err != nil {
			logger.Errorf("ensure message indexes: %v", err)
		}
	})
}

// ConfigNats wires the identity event consumers. Malformed payloads are
// logged and dropped (returning an error would only trigger redelivery of
// a payload that can never decode).
func ConfigNats() {
	idemTTL := time.Duration(tools.GetEnvInt("IDEM_TTL_MS", 60000)) * time.Millisecond
	natsx.UseGlobalMiddlewares(natsx.NatsxIdemMiddleware(natsx.NewMemIdem(idemTTL), idemTTL))

	_ = natsx.RegisterRoute(natsx.NatsxRoute{
		Biz:     BizUserCreated,
		Subject: BizUserCreated,
		Mode:    natsx.Core,
		Queue:   "social",
	})
	_ = natsx.RegisterRoute(natsx.NatsxRoute{
		Biz:     BizUserUpdated,
		Subject: BizUserUpdated,
		Mode:    natsx.Core,
		Queue:   "social",
	})
	// outbound: saved messages, published by the message store
	_ = natsx.RegisterRoute(natsx.NatsxRoute{
		Biz:     svc.BizMessageCreated,
		Subject: svc.BizMessageCreated,
		Mode:    natsx.Core,
	})

	_ = natsx.RegisterHandler(BizUserCreated, func(ctx context.Context, m natsx.NatsxMessage) error {
		evt, err := decode.DecodeJSON[svc.UserEvent](m.Data)
		if err != nil {
			logger.Warnf("drop malformed %s event: %v", BizUserCreated, err)
			return nil
		}
		if err := svc.ApplyUserCreated(ctx, evt); err != nil {
			logger.Errorf("apply %s userId=%s: %v", BizUserCreated, evt.UserID, err)
			return err
		}
		return nil
	})
	_ = natsx.RegisterHandler(BizUserUpdated, func(ctx context.Context, m natsx.NatsxMessage) error {
		evt, err := decode.DecodeJSON[svc.UserEvent](m.Data)
		if err != nil {
			logger.Warnf("drop malformed %s event: %v", BizUserUpdated, err)
			return nil
		}
		if err := svc.ApplyUserUpdated(ctx, evt); err != nil {
			logger.Errorf("apply %s userId=%s: %v", BizUserUpdated, evt.UserID, err)
			return err
		}
		return nil
	})

	servers := strings.Split(tools.GetEnv("NATS_SERVERS", "nats://127.0.0.1:4222"), ",")
	natsx.StartNats(natsx.NatsxConfig{
		Servers: servers,
		Name:    tools.GetEnv("NATS_NAME", "social-service"),
	})
}
