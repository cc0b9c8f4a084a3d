package main

import (
	"fmt"
	"time"

	"github.com/felo/case-outreach/internal/crm"
	"github.com/spf13/cobra"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Insert sample cases and engineers for the session owner",
	RunE: func(cmd *cobra.Command, args []string) error {
		database, err := openDatabase()
		if err != nil {
			return err
		}
		defer database.Close()

		owner := cfg.Session.Owner
		now := time.Now()

		cases := []*crm.Case{
			{
				Title:           "Go backend for payment platform",
				Skills:          []string{"Go", "Kubernetes", "PostgreSQL"},
				KeyTechnologies: "Go, Kubernetes",
				Location:        "Tokyo (remote ok)",
				Budget:          "800k JPY/month",
				Company:         "Acme Payments",
				Senders: []crm.Sender{
					{Name: "田中 太郎", Email: "tanaka@acme-pay.example", Position: "採用担当"},
					{Name: "佐藤 花子", Email: "sato@acme-pay.example"},
				},
				RegisteredAt: now,
			},
			{
				Title:        "Frontend lead, React migration",
				Skills:       []string{"TypeScript", "React"},
				Location:     "Osaka",
				Company:      "Nishi Retail",
				Sender:       "Hiroshi Ito",
				SenderEmail:  "ito@nishi-retail.example",
				RegisteredAt: now.AddDate(0, 0, -3),
			},
			{
				Title:        "Data pipeline maintenance",
				Skills:       []string{"Python", "Airflow"},
				Status:       crm.StatusClosed,
				Company:      "Acme Payments",
				Sender:       "recruit@acme-pay.example",
				RegisteredAt: now.AddDate(0, -1, 0),
			},
		}
		for _, c := range cases {
			c.Owner = owner
			if _, err := database.CreateCase(c); err != nil {
				return fmt.Errorf("seed case %q: %w", c.Title, err)
			}
		}

		engineers := []*crm.Engineer{
			{Name: "山田 一郎", Skills: []string{"Go", "Kubernetes"}, Experience: "8 years"},
			{Name: "Mika Suzuki", Skills: []string{"React", "TypeScript"}, Experience: "5 years"},
		}
		for _, e := range engineers {
			e.Owner = owner
			if _, err := database.CreateEngineer(e); err != nil {
				return fmt.Errorf("seed engineer %q: %w", e.Name, err)
			}
		}

		logger.Info("seeded", "owner", owner, "cases", len(cases), "engineers", len(engineers))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(seedCmd)
}
