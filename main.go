package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"

	"github.com/chiendz11/Badminton-manager-microservices-sub002/global"
	"github.com/chiendz11/Badminton-manager-microservices-sub002/logger"
	"github.com/chiendz11/Badminton-manager-microservices-sub002/module/social"
	"github.com/chiendz11/Badminton-manager-microservices-sub002/module/social/service"
	"github.com/chiendz11/Badminton-manager-microservices-sub002/service/chat"
	mgoSrv "github.com/chiendz11/Badminton-manager-microservices-sub002/service/mgo"
	"github.com/chiendz11/Badminton-manager-microservices-sub002/service/natsx"
	redis "github.com/chiendz11/Badminton-manager-microservices-sub002/service/storage/redis"
	"github.com/chiendz11/Badminton-manager-microservices-sub002/tools"
	"github.com/chiendz11/Badminton-manager-microservices-sub002/tools/safe"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	global.ConfigAll(ctx)

	gwID := "social-gw-" + tools.RandID()
	conns := chat.NewConnManager(gwID)
	srv := chat.NewServer(gwID, conns, service.ChatStore{})

	search := service.NewSearchClient(tools.GetEnv("USER_SVC_URL", "http://127.0.0.1:8081"))

	if !tools.GetEnvBool("HTTP_DEBUG", false) {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/healthz", func(c *gin.Context) {
		if _, ready := mgoSrv.TryGetDB(); !ready {
			body := gin.H{"status": "starting"}
			if err := mgoSrv.Err(); err != nil {
				body["mongo"] = err.Error()
			}
			c.JSON(http.StatusServiceUnavailable, body)
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok", "gateway": gwID})
	})
	r.GET("/ws/chat", srv.HandleWS)
	social.NewHandler(search, conns).RegisterRoutes(r)

	addr := tools.GetEnv("HTTP_ADDR", ":8080")
	safe.Go(func() {
		if err := r.Run(addr); err != nil {
			logger.Errorf("http server stopped: %v", err)
			cancel()
		}
	})
	logger.Infof("social service listening on %s gateway=%s", addr, gwID)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sig:
	case <-ctx.Done():
	}

	conns.Close()
	if err := natsx.StopNats(); err != nil {
		logger.Warnf("nats shutdown: %v", err)
	}
	if err := redis.CloseRedis(); err != nil {
		logger.Warnf("redis shutdown: %v", err)
	}
	logger.Infof("social service stopped")
}
