package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"wedding-guestsync/internal/api"
	"wedding-guestsync/internal/config"
	"wedding-guestsync/internal/handler"
	"wedding-guestsync/internal/models"
	"wedding-guestsync/internal/netmon"
	"wedding-guestsync/internal/notify"
	"wedding-guestsync/internal/qr"
	"wedding-guestsync/internal/status"
	"wedding-guestsync/internal/store"
	"wedding-guestsync/internal/syncqueue"
)

const weddingDetailsCacheKey = "wedding_details"

func main() {
	fmt.Println("💍 Wedding Guest Sync Agent")
	fmt.Println("===========================")

	cfg := config.LoadConfig()
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	st, err := store.Open(cfg.DataDir)
	if err != nil {
		fmt.Printf("Error opening local store: %v\n", err)
		os.Exit(1)
	}
	defer st.Close()

	client := api.NewClient(cfg.APIBaseURL, cfg.DeliveryTimeout, logger)
	notifier := notify.NewLogNotifier(logger)
	monitor := netmon.NewMonitor(client, cfg.ProbeTimeout, cfg.ProbeInterval, logger)
	queue := syncqueue.NewQueue(st, client, monitor, notifier, cfg.DeliveryTimeout, cfg.SyncMaxAttempts, logger)
	defer queue.Close()
	submitter := handler.NewSubmitter(client, queue, monitor, notifier, cfg.PhotoMaxWidth, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	monitor.SetOnlineHandler(func() {
		notifier.Notify(notify.Event{
			Kind:    notify.KindBackOnline,
			Message: "back online — syncing your data",
		})
		queue.DrainAll(ctx)
		refreshDetailsCache(ctx, client, st, logger)
	})

	go monitor.Run(ctx)
	// Assume the link is up at start; the probe decides whether we
	// are actually online.
	monitor.SetLinkUp(true)

	statusHandler := status.NewHandler(monitor, st, queue, logger)
	statusSrv := &http.Server{Addr: cfg.StatusAddr, Handler: statusHandler.Router()}
	go func() {
		if err := statusSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("status listener failed")
		}
	}()

	fmt.Printf("\n✅ Agent running. Status endpoint: http://%s/status\n", cfg.StatusAddr)

	go startCLI(ctx, submitter, queue, st, monitor, cfg)

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	<-c

	fmt.Println("\n\nShutting down...")
	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	_ = statusSrv.Shutdown(shutdownCtx)
	fmt.Println("Goodbye! 👋")
}

func refreshDetailsCache(ctx context.Context, client *api.Client, st *store.Store, logger zerolog.Logger) {
	content, err := client.FetchWeddingDetails(ctx)
	if err != nil {
		logger.Debug().Err(err).Msg("wedding details refresh skipped")
		return
	}
	if err := st.PutCached(ctx, weddingDetailsCacheKey, content); err != nil {
		logger.Error().Err(err).Msg("caching wedding details failed")
	}
}

func startCLI(ctx context.Context, submitter *handler.Submitter, queue *syncqueue.Queue, st *store.Store, monitor *netmon.Monitor, cfg *config.Config) {
	scanner := bufio.NewScanner(os.Stdin)

	for {
		fmt.Println("\nCommands:")
		fmt.Println("  1. Submit RSVP")
		fmt.Println("  2. Queue photo upload")
		fmt.Println("  3. View pending items")
		fmt.Println("  4. Sync now")
		fmt.Println("  5. Network status")
		fmt.Println("  6. Guest login QR code")
		fmt.Println("  7. Exit")
		fmt.Print("\nEnter command (1-7): ")

		if !scanner.Scan() {
			break
		}

		command := strings.TrimSpace(scanner.Text())

		switch command {
		case "1":
			submitRSVP(ctx, scanner, submitter)
		case "2":
			queuePhoto(ctx, scanner, submitter)
		case "3":
			viewPending(ctx, st)
		case "4":
			fmt.Println("Syncing...")
			queue.DrainAll(ctx)
			fmt.Println("Done.")
		case "5":
			printNetworkStatus(monitor.Status())
		case "6":
			printLoginQR(scanner, cfg.SiteBaseURL)
		case "7":
			fmt.Println("Exiting...")
			os.Exit(0)
		default:
			fmt.Println("Invalid command. Please try again.")
		}
	}
}

func submitRSVP(ctx context.Context, scanner *bufio.Scanner, submitter *handler.Submitter) {
	fmt.Print("Guest full name: ")
	if !scanner.Scan() {
		return
	}
	name := strings.TrimSpace(scanner.Text())

	fmt.Print("Attending (YES/NO/MAYBE): ")
	if !scanner.Scan() {
		return
	}
	attending := models.Attendance(strings.ToUpper(strings.TrimSpace(scanner.Text())))

	fmt.Print("Meal preference: ")
	if !scanner.Scan() {
		return
	}
	meal := strings.TrimSpace(scanner.Text())

	fmt.Print("Allergies: ")
	if !scanner.Scan() {
		return
	}
	allergies := strings.TrimSpace(scanner.Text())

	fmt.Print("Additional notes: ")
	if !scanner.Scan() {
		return
	}
	notes := strings.TrimSpace(scanner.Text())

	outcome, err := submitter.SubmitRSVP(ctx, handler.RSVPInput{
		FullName:        name,
		Attending:       attending,
		MealPreference:  meal,
		Allergies:       allergies,
		AdditionalNotes: notes,
	})
	if err != nil {
		if models.KindOf(err) == models.ErrKindValidation {
			fmt.Printf("❌ Invalid RSVP: %v\n", err)
		} else {
			fmt.Printf("❌ Could not save RSVP: %v\n", err)
		}
		return
	}

	switch outcome {
	case handler.OutcomeDelivered:
		fmt.Println("✅ RSVP delivered!")
	case handler.OutcomeQueued:
		fmt.Println("💾 Saved — will sync when back online.")
	}
}

func queuePhoto(ctx context.Context, scanner *bufio.Scanner, submitter *handler.Submitter) {
	fmt.Print("Photo file path: ")
	if !scanner.Scan() {
		return
	}
	path := strings.TrimSpace(scanner.Text())

	data, err := os.ReadFile(path)
	if err != nil {
		fmt.Printf("❌ Could not read file: %v\n", err)
		return
	}

	fmt.Print("Caption: ")
	if !scanner.Scan() {
		return
	}
	caption := strings.TrimSpace(scanner.Text())

	fmt.Print("Your name: ")
	if !scanner.Scan() {
		return
	}
	uploader := strings.TrimSpace(scanner.Text())

	outcome, err := submitter.SubmitPhoto(ctx, handler.PhotoInput{
		Image:        data,
		Caption:      caption,
		UploaderName: uploader,
	})
	if err != nil {
		if models.KindOf(err) == models.ErrKindValidation {
			fmt.Printf("❌ Invalid photo: %v\n", err)
		} else {
			fmt.Printf("❌ Could not save photo: %v\n", err)
		}
		return
	}

	switch outcome {
	case handler.OutcomeDelivered:
		fmt.Println("✅ Photo uploaded!")
	case handler.OutcomeQueued:
		fmt.Println("💾 Saved — will sync when back online.")
	}
}

func viewPending(ctx context.Context, st *store.Store) {
	for _, collection := range []string{store.CollectionRSVPs, store.CollectionPhotos} {
		items, err := st.GetAll(ctx, collection)
		if err != nil {
			fmt.Printf("❌ Could not read %s: %v\n", collection, err)
			continue
		}
		fmt.Printf("\n📋 %s (%d pending):\n", collection, len(items))
		for _, item := range items {
			fmt.Printf("  - %s\n", item.Key)
		}
	}
}

func printNetworkStatus(s models.NetworkStatus) {
	fmt.Printf("\nOnline: %v\n", s.Online)
	fmt.Printf("Connecting: %v\n", s.Connecting)
	fmt.Printf("Quality: %s\n", s.Quality)
	if !s.LastConnected.IsZero() {
		fmt.Printf("Last connected: %s\n", s.LastConnected.Format("2006-01-02 15:04:05"))
	}
}

func printLoginQR(scanner *bufio.Scanner, siteBaseURL string) {
	fmt.Print("Guest token: ")
	if !scanner.Scan() {
		return
	}
	token := strings.TrimSpace(scanner.Text())

	code, err := qr.Terminal(siteBaseURL, token)
	if err != nil {
		fmt.Printf("❌ Could not render QR code: %v\n", err)
		return
	}
	fmt.Println("\n" + code)
	fmt.Printf("Login URL: %s\n", qr.LoginURL(siteBaseURL, token))
}
