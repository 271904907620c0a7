// Smoke check for the session protocol against a live helpdesk API:
// CSRF bootstrap, login, who-am-i, refresh, logout.
//
// Usage: HELPDESK_CLIENT_API_BASE_URL=... go run ./e2e/login-flow <email> <password>
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/astro-web3/helpdesk-client/internal/app/helpdesk"
	"github.com/astro-web3/helpdesk-client/internal/config"
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

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	u, err := app.Sessions.Login(ctx, email, password, false)
	if err != nil {
		log.Fatalf("Login failed: %v", err)
	}
	fmt.Printf("✅ Logged in as %s (%s, role %s)\n", u.Name, u.Email, u.Role)

	me, err := app.Sessions.WhoAmI(ctx)
	if err != nil {
		log.Fatalf("WhoAmI failed: %v", err)
	}
	fmt.Printf("✅ Identity confirmed: %s\n", me.ID)

	if err := app.Sessions.Refresh(ctx); err != nil {
		log.Fatalf("Refresh failed: %v", err)
	}
	fmt.Println("✅ Session refreshed")

	if err := app.Sessions.Logout(ctx, false); err != nil {
		log.Fatalf("Logout failed: %v", err)
	}
	fmt.Println("✅ Logged out")
}
