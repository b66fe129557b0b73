package main

import (
	"context"
	"flag"
	"fmt"
	"log"

	"github.com/joho/godotenv"

	"architect3d/internal/config"
	"architect3d/internal/storage"
)

func main() {
	var (
		email      = flag.String("email", "", "User email to operate on")
		list       = flag.Bool("list", false, "List users")
		deleteFlag = flag.Bool("delete", false, "Delete user by email")
		stats      = flag.Bool("stats", false, "Print store statistics")
	)
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found, using environment")
	}
	cfg := config.FromEnv()
	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL is required to administer users")
	}

	ctx := context.Background()
	store, err := storage.NewStore(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("connect store: %v", err)
	}
	defer store.Close()

	if *list {
		if err := listUsers(ctx, store); err != nil {
			log.Fatalf("list users: %v", err)
		}
		return
	}

	if *stats {
		if err := printStats(ctx, store); err != nil {
			log.Fatalf("stats: %v", err)
		}
		return
	}

	if *email == "" {
		log.Fatal("email is required (use -email)")
	}

	user, err := store.GetUserByEmail(ctx, *email)
	if err != nil {
		log.Fatalf("find user: %v", err)
	}

	if *deleteFlag {
		if err := store.DeleteUser(ctx, user.ID); err != nil {
			log.Fatalf("delete user: %v", err)
		}
		fmt.Printf("User %s (%s) deleted\n", user.Email, user.ID)
		return
	}

	count, err := store.CountFavorited(ctx, storage.ForUser(user.ID))
	if err != nil {
		log.Fatalf("count favorites: %v", err)
	}
	renderings, err := store.ListRenderings(ctx, storage.ForUser(user.ID))
	if err != nil {
		log.Fatalf("list renderings: %v", err)
	}
	fmt.Printf("User %s (%s): %d renderings, %d favorited\n", user.Email, user.ID, len(renderings), count)
}

func listUsers(ctx context.Context, store storage.Store) error {
	users, err := store.ListUsers(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("%-40s %-30s %s\n", "ID", "EMAIL", "CREATED")
	for _, u := range users {
		fmt.Printf("%-40s %-30s %s\n", u.ID, u.Email, u.CreatedAt.Format("2006-01-02 15:04"))
	}
	return nil
}

func printStats(ctx context.Context, store storage.Store) error {
	users, err := store.ListUsers(ctx)
	if err != nil {
		return err
	}
	total, err := store.CountRenderings(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("%d users, %d renderings\n", len(users), total)
	return nil
}
