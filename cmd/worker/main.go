package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"detention/internal/config"
	"detention/internal/faceclient"
	"detention/internal/metrics"
	"detention/internal/queue"
	"detention/internal/store"
	"detention/internal/visitation"
)

// Worker consumes queue messages, calls the face service, and records
// verification outcomes on visit requests.
func main() {
	cfg := config.Load()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Println("shutdown signal received")
		cancel()
	}()

	db, err := store.NewDB(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db connect failed: %v", err)
	}
	defer db.Close()

	redisClient := store.NewRedis(cfg.RedisAddr)

	var q queue.Queue
	if cfg.QueueBackend == "memory" {
		q = queue.NewInMemory(64)
	} else {
		q = queue.NewRedisQueue(redisClient.Client, "visitation:requests")
	}

	repo := visitation.NewRepository(db)
	face := faceclient.New(cfg.FaceServiceURL, cfg.FaceSkip)

	if !cfg.FaceSkip {
		if err := face.Health(ctx); err != nil {
			log.Printf("WARNING: Face service not available: %v", err)
			log.Println("Worker will retry face processing when requests arrive")
		} else {
			log.Println("Face service connected")
		}
	}

	messages, err := q.Consume(ctx)
	if err != nil {
		log.Fatalf("queue consume init failed: %v", err)
	}

	log.Println("worker started, waiting for messages...")
	for msg := range messages {
		switch msg.Type {
		case queue.TypeVisitRequest:
			processVisitRequest(ctx, repo, face, cfg.FaceThreshold, string(msg.Body))
		case queue.TypeFaceEnroll:
			processFaceEnroll(ctx, repo, face, string(msg.Body))
		}
		time.Sleep(10 * time.Millisecond)
	}

	log.Println("worker stopped")
}

func processVisitRequest(ctx context.Context, repo *visitation.Repository, face *faceclient.Client, threshold float64, id string) {
	log.Printf("processing visit request %s", id)

	vr, err := repo.GetVisitRequest(ctx, id)
	if err != nil {
		log.Printf("fetch visit request %s failed: %v", id, err)
		return
	}

	visitor, err := repo.GetVisitor(ctx, vr.VisitorID)
	if err != nil {
		log.Printf("fetch visitor %s failed: %v", vr.VisitorID, err)
		return
	}
	if !visitor.FaceEnrolled {
		log.Printf("visitor %s has no enrolled face, marking %s failed", visitor.ID, id)
		_ = repo.SetVisitRequestResult(ctx, id, visitation.RequestFailed, nil, time.Now().UTC())
		metrics.FaceVerifications.WithLabelValues("failed").Inc()
		return
	}

	result, err := face.Verify(ctx, visitor.ID, vr.ImageURL)
	if err != nil {
		log.Printf("face verify failed for %s: %v", id, err)
		_ = repo.SetVisitRequestResult(ctx, id, visitation.RequestFailed, nil, time.Now().UTC())
		metrics.FaceVerifications.WithLabelValues("failed").Inc()
		return
	}

	status := visitation.RequestRejected
	if result.Verified && result.Similarity >= threshold {
		status = visitation.RequestVerified
	}
	score := result.Similarity
	if err := repo.SetVisitRequestResult(ctx, id, status, &score, time.Now().UTC()); err != nil {
		log.Printf("update visit request %s failed: %v", id, err)
		return
	}
	metrics.FaceVerifications.WithLabelValues(status).Inc()
	log.Printf("visit request %s %s (similarity %.2f)", id, status, result.Similarity)
}

func processFaceEnroll(ctx context.Context, repo *visitation.Repository, face *faceclient.Client, visitorID string) {
	visitor, err := repo.GetVisitor(ctx, visitorID)
	if err != nil {
		log.Printf("fetch visitor %s failed: %v", visitorID, err)
		return
	}
	if visitor.PhotoURL == nil {
		log.Printf("visitor %s has no photo, skipping enrollment", visitorID)
		return
	}

	result, err := face.Enroll(ctx, visitor.ID, *visitor.PhotoURL, visitor.FirstName+" "+visitor.LastName)
	if err != nil || !result.Success {
		log.Printf("face enroll failed for visitor %s: %v", visitorID, err)
		return
	}
	if err := repo.SetVisitorFaceEnrolled(ctx, visitor.ID, time.Now().UTC()); err != nil {
		log.Printf("mark visitor %s enrolled failed: %v", visitorID, err)
		return
	}
	log.Printf("visitor %s face enrolled", visitorID)
}
