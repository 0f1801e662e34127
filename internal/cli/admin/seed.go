package admin

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"github.com/askhub-io/askhub/internal/config"
	"github.com/askhub-io/askhub/internal/domain"
	"github.com/askhub-io/askhub/internal/repository"
)

func SeedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Seed demo data",
		Long:  "Insert demo users and questions for local development",
		RunE:  runSeed,
	}
}

var seedUsers = []*domain.User{
	{EmployeeID: "emp-0001", Email: "sarah.chen@example.com", FirstName: "Sarah", LastName: "Chen", Department: "Engineering", Team: "Platform", Expertise: []string{"kubernetes", "docker"}, Reputation: 120},
	{EmployeeID: "emp-0002", Email: "marcus.webb@example.com", FirstName: "Marcus", LastName: "Webb", Department: "Engineering", Team: "Data", Expertise: []string{"watson", "machine learning"}, Reputation: 85},
	{EmployeeID: "emp-0003", Email: "priya.nair@example.com", FirstName: "Priya", LastName: "Nair", Department: "Cloud", Team: "SRE", Expertise: []string{"ibm cloud", "devops", "security"}, Reputation: 200},
}

var seedQuestions = []*domain.Question{
	{Title: "How do I configure liveness probes for a Watson service on Kubernetes?", Content: "Our Watson Assistant deployment keeps restarting. What probe settings work in practice?", Tags: []string{"Kubernetes", "Watson"}},
	{Title: "Error pulling images from private registry in OpenShift", Content: "Getting ImagePullBackOff with our internal registry. The secret looks correct:\n```\noc get secret regcred -o yaml\n```", Tags: []string{"Red Hat", "DevOps"}},
	{Title: "Best practices for API key rotation on IBM Cloud?", Content: "How often should service API keys rotate, and how do teams automate it without downtime?", Tags: []string{"IBM Cloud", "Security", "API"}},
}

func runSeed(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	pool, err := getDBPool(ctx)
	if err != nil {
		return err
	}
	defer pool.Close()

	userRepo := repository.NewUserRepository(pool)
	questionRepo := repository.NewQuestionRepository(pool)

	created := 0
	authors := make([]int64, 0, len(seedUsers))
	for _, u := range seedUsers {
		user := *u
		if err := userRepo.Create(ctx, &user); err != nil {
			if errors.Is(err, domain.ErrUserAlreadyExists) {
				existing, err := userRepo.GetByEmail(ctx, user.Email)
				if err != nil {
					return fmt.Errorf("failed to look up existing user %s: %w", user.Email, err)
				}
				authors = append(authors, existing.ID)
				continue
			}
			return fmt.Errorf("failed to create user %s: %w", user.Email, err)
		}
		authors = append(authors, user.ID)
		created++
	}
	fmt.Printf("Users: %d created, %d already present\n", created, len(seedUsers)-created)

	created = 0
	for i, q := range seedQuestions {
		question := *q
		question.AuthorID = authors[i%len(authors)]
		question.Status = domain.QuestionStatusOpen
		if err := questionRepo.Create(ctx, &question); err != nil {
			return fmt.Errorf("failed to create question %q: %w", question.Title, err)
		}
		created++
	}
	fmt.Printf("Questions: %d created\n", created)

	return nil
}

func getDBPool(ctx context.Context) (*pgxpool.Pool, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return pool, nil
}
