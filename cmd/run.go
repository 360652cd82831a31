package cmd

import (
	"context"
	"fmt"
	"log"
	"time"

	"govpay/application"
	"govpay/config"
	"govpay/database"
	"govpay/domain/interfaces"
	"govpay/infrastructure"
	"govpay/repository"
)

// Run initializes and starts the engine
func Run(ctx context.Context) error {
	log.Println("Starting govpay engine...")

	// Load configuration
	cfg := config.Get()

	// Initialize database connection
	log.Println("Connecting to database...")
	db, err := database.NewConnection(ctx, cfg.GetDatabaseURL())
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	log.Println("Database connection established successfully")

	// Initialize NATS
	log.Printf("Connecting to NATS at %s...", cfg.NATSServers)
	natsClient := infrastructure.NewNATSClient(cfg.NATSServers)
	if err := natsClient.Connect(ctx); err != nil {
		return fmt.Errorf("failed to connect to NATS: %w", err)
	}

	// Initialize event publishing
	subjectMapper := infrastructure.NewEventSubjectMapper()
	eventPublisher := infrastructure.NewNATSEventPublisher(natsClient, subjectMapper)
	if err := eventPublisher.EnsureDomainEventStream(); err != nil {
		return fmt.Errorf("failed to ensure domain event stream: %w", err)
	}

	// Initialize the deferred-execution scheduler
	scheduler := infrastructure.NewNATSScheduler(natsClient)
	if err := scheduler.EnsureDeferredStream(); err != nil {
		return fmt.Errorf("failed to ensure deferred request stream: %w", err)
	}

	// Initialize external collaborators
	pollService := infrastructure.NewNATSPollService(natsClient)
	ledgerService := infrastructure.NewNATSLedgerService(natsClient)

	// Initialize unit of work factory and the engine facade
	uowFactory := repository.NewUnitOfWorkFactory(db)
	engine := application.NewEngine(
		uowFactory,
		func() interfaces.TransactionalEventPublisher {
			return infrastructure.NewNATSTransactionalPublisher(eventPublisher)
		},
		pollService,
		ledgerService,
		scheduler,
	)

	// Route deferred replays back through the engine
	dispatcher := application.NewDispatcher(engine)
	if err := scheduler.StartDispatch(dispatcher.Dispatch); err != nil {
		return fmt.Errorf("failed to start deferred dispatch: %w", err)
	}

	// Wait for context cancellation
	log.Printf("Engine is running in %s mode...", cfg.Environment)
	<-ctx.Done()

	// Cleanup resources
	log.Println("Shutting down engine...")

	if err := natsClient.Close(); err != nil {
		log.Printf("Error closing NATS connection: %v", err)
	}

	// Give cleanup operations time to complete
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Close database connection
	log.Println("Closing database connection...")
	db.Close()

	select {
	case <-shutdownCtx.Done():
		log.Println("Shutdown timeout exceeded")
	case <-time.After(1 * time.Second):
		log.Println("Shutdown completed")
	}

	return nil
}
