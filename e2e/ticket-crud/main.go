// Smoke check for the ticket surface against a live helpdesk API:
// login, create a ticket, list, fetch, update.
//
// Usage: HELPDESK_CLIENT_API_BASE_URL=... go run ./e2e/ticket-crud <email> <password>
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/astro-web3/helpdesk-client/internal/app/helpdesk"
	"github.com/astro-web3/helpdesk-client/internal/config"
	"github.com/astro-web3/helpdesk-client/internal/domain/ticket"
)

func main() {
	if len(os.Args) < 3 {
		log.Fatalf("Usage: %s <email> <password>", os.Args[0])
	}
	email, password := os.Args[1], os.Args[2]

	cfg := config.MustLoad()
	app, err := helpdesk.New(cfg)
	if err != nil {
		log.Fatalf("Failed to build client: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	if _, err := app.Sessions.Login(ctx, email, password, false); err != nil {
		log.Fatalf("Login failed: %v", err)
	}

	created, err := app.Tickets.Create(ctx, ticket.CreateParams{
		Subject:  "e2e smoke ticket",
		Body:     "created by e2e/ticket-crud",
		Priority: ticket.PriorityLow,
	})
	if err != nil {
		log.Fatalf("Create failed: %v", err)
	}
	fmt.Printf("✅ Created ticket %s\n", created.ID)

	page, err := app.Tickets.List(ctx, ticket.ListParams{Limit: 5})
	if err != nil {
		log.Fatalf("List failed: %v", err)
	}
	fmt.Printf("✅ Listed %d tickets (limit %d, next=%v)\n",
		len(page.Items), page.PageInfo.Limit, page.PageInfo.HasNextPage)

	got, err := app.Tickets.Get(ctx, created.ID)
	if err != nil {
		log.Fatalf("Get failed: %v", err)
	}
	fmt.Printf("✅ Fetched ticket %s (status %s)\n", got.ID, got.Status)

	closed := ticket.StatusClosed
	updated, err := app.Tickets.Update(ctx, created.ID, ticket.UpdateParams{Status: &closed})
	if err != nil {
		log.Fatalf("Update failed: %v", err)
	}
	fmt.Printf("✅ Updated ticket %s to %s\n", updated.ID, updated.Status)

	if err := app.Sessions.Logout(ctx, false); err != nil {
		log.Fatalf("Logout failed: %v", err)
	}
	fmt.Println("✅ Logged out")
}
