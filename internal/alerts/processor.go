package alerts

import (
	"context"
	"encoding/json"
	"log"
	"os"

	"github.com/hibiken/asynq"
)

var (
	client *asynq.Client
	server *asynq.Server
)

// Init starts the Asynq server and initializes a shared client.
func Init() {
	redisAddr := os.Getenv("REDIS_ADDR")
	if redisAddr == "" {
		if host := os.Getenv("REDIS_HOST"); host != "" {
			port := os.Getenv("REDIS_PORT")
			if port == "" {
				port = "6379"
			}
			redisAddr = host + ":" + port
		} else {
			redisAddr = "redis:6379"
			if os.Getenv("RUN_LOCAL") == "true" {
				redisAddr = "127.0.0.1:6379"
			}
		}
	}

	opts := asynq.RedisClientOpt{Addr: redisAddr}
	client = asynq.NewClient(opts)

	mux := asynq.NewServeMux()
	mux.HandleFunc(TaskWelcomeEmail, handleEnvelopeTask)
	mux.HandleFunc(TaskPasswordReset, handleEnvelopeTask)
	mux.HandleFunc(TaskServiceRequested, handleEnvelopeTask)
	mux.HandleFunc(TaskServiceStarted, handleEnvelopeTask)
	mux.HandleFunc(TaskServiceCompleted, handleEnvelopeTask)
	mux.HandleFunc(TaskServiceVerified, handleEnvelopeTask)
	mux.HandleFunc(TaskServiceCanceled, handleEnvelopeTask)
	mux.HandleFunc(TaskDisputeRaised, handleEnvelopeTask)
	mux.HandleFunc(TaskDisputeResolved, handleEnvelopeTask)
	mux.HandleFunc(TaskFundAllocated, handleEnvelopeTask)
	mux.HandleFunc(TaskMessageNew, handleEnvelopeTask)

	server = asynq.NewServer(opts, asynq.Config{
		Concurrency: 5,
		Queues: map[string]int{
			"emails": 10,
		},
	})
	go func() {
		if err := server.Run(mux); err != nil {
			log.Printf("Asynq server stopped: %v", err)
		}
	}()

	log.Printf("Asynq initialized (addr=%s)", redisAddr)
}

// Close releases client and stops server.
func Close() {
	if client != nil {
		_ = client.Close()
	}
	if server != nil {
		server.Shutdown()
	}
}

// Every email task shares the envelope shape, so one handler delivers all.
func handleEnvelopeTask(_ context.Context, t *asynq.Task) error {
	var p struct {
		Envelope EmailEnvelope `json:"envelope"`
	}
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return err
	}
	if err := SendEmail(p.Envelope.To, p.Envelope.Subject, p.Envelope.Body); err != nil {
		log.Printf("[notify][ERROR] %s send failed: %v", t.Type(), err)
		return err
	}
	log.Printf("[notify] %s sent -> to=%s", t.Type(), p.Envelope.To)
	return nil
}
