// Command practice runs a pronunciation session against a kotoba server,
// submitting one recording per sentence.
//
//	practice -api http://localhost:8080 -email me@example.com -password ... -challenge 1 take1.wav take2.webm -
//
// A "-" in place of a file skips that sentence.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"text/tabwriter"

	"kotoba/backend/apiclient"
	"kotoba/backend/practice"
)

func main() {
	api := flag.String("api", envOr("KOTOBA_API", "http://localhost:8080"), "server base URL")
	email := flag.String("email", os.Getenv("KOTOBA_EMAIL"), "account email")
	password := flag.String("password", os.Getenv("KOTOBA_PASSWORD"), "account password")
	token := flag.String("token", os.Getenv("KOTOBA_TOKEN"), "bearer token instead of email/password")
	order := flag.Int("challenge", 0, "challenge order index to practice")
	list := flag.Bool("list", false, "list challenges and exit")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	client := apiclient.New(*api, apiclient.WithToken(*token))
	if *token == "" {
		if err := client.Login(ctx, *email, *password); err != nil {
			log.Fatalf("login: %v", err)
		}
	}

	if *list {
		if err := printChallenges(ctx, client); err != nil {
			log.Fatal(err)
		}
		return
	}
	if *order <= 0 {
		log.Fatal("-challenge is required")
	}

	if err := run(ctx, client, *order, flag.Args()); err != nil {
		log.Fatal(err)
	}
}

func run(ctx context.Context, client *apiclient.Client, order int, files []string) error {
	s := practice.NewSession(order, client, client, client)
	if err := s.Start(ctx); err != nil {
		return fmt.Errorf("load challenge %d: %w", order, err)
	}
	fmt.Printf("%s\n\n", s.Challenge().Title)

	for i := 0; ; i++ {
		sentence, idx, ok := s.Current()
		if !ok {
			break
		}
		fmt.Printf("[%d] %s  (%s)\n", idx+1, sentence.JPText, sentence.ENText)

		if i < len(files) && files[i] != "-" {
			audio, err := os.ReadFile(files[i])
			if err != nil {
				return err
			}
			fb, err := s.Record(ctx, audio, apiclient.MIMEFromPath(files[i]))
			var apiErr *apiclient.APIError
			switch {
			case errors.As(err, &apiErr):
				fmt.Printf("    error: %v\n", apiErr)
			case err != nil:
				return err
			default:
				mark := "✗"
				if fb.Correct {
					mark = "✓"
				}
				fmt.Printf("    %s heard %q (%s) via %s\n", mark, fb.Transcript, fb.Reading, fb.Engine)
			}
			if err := s.Next(ctx); err != nil {
				return err
			}
			continue
		}

		fmt.Println("    skipped")
		if err := s.Skip(ctx); err != nil {
			return err
		}
	}

	out, err := s.Finish(ctx)
	if err != nil {
		return fmt.Errorf("save result: %w", err)
	}
	correct, total := s.Progress()
	fmt.Printf("\n%d/%d correct (%.0f%%), stars %d -> %d\n", correct, total, out.Accuracy*100, out.OldStars, out.NewStars)
	return nil
}

func printChallenges(ctx context.Context, client *apiclient.Client) error {
	challenges, err := client.Challenges(ctx)
	if err != nil {
		return err
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "#\tTITLE\tSTARS\tSENTENCES\tLOCKED")
	for _, c := range challenges {
		fmt.Fprintf(w, "%d\t%s\t%d\t%d\t%v\n", c.OrderIndex, c.Title, c.Stars, c.SentenceCount, c.IsLocked)
	}
	return w.Flush()
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
