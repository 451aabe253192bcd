package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"taskboard/internal/client"
	"taskboard/internal/config"
	"taskboard/internal/models"
)

func main() {
	if len(os.Args) < 2 {
		printHelp()
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	api := client.New(cfg.APIBaseURL, nil)

	command := os.Args[1]
	switch command {
	case "add":
		err = handleAddCommand(ctx, api, os.Args[2:])
	case "list":
		err = handleListCommand(ctx, api)
	case "done":
		err = handleDoneCommand(ctx, api, os.Args[2:])
	case "export":
		err = handleExportCommand(ctx, api, os.Args[2:])
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printHelp()
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func handleAddCommand(ctx context.Context, api *client.Client, args []string) error {
	addCmd := flag.NewFlagSet("add", flag.ExitOnError)
	title := addCmd.String("title", "", "Task title")
	desc := addCmd.String("desc", "", "Optional task description")
	addCmd.Parse(args)

	if strings.TrimSpace(*title) == "" {
		return fmt.Errorf("--title is required")
	}

	var description *string
	if *desc != "" {
		description = desc
	}

	task, err := api.CreateTask(ctx, *title, description)
	if err != nil {
		return err
	}

	fmt.Printf("Added task with ID %d\n", task.ID)
	return nil
}

func handleListCommand(ctx context.Context, api *client.Client) error {
	tasks, err := api.ListTasks(ctx)
	if err != nil {
		return err
	}

	if len(tasks) == 0 {
		fmt.Println("No open tasks")
		return nil
	}

	for _, task := range tasks {
		line := fmt.Sprintf("%d: %s", task.ID, task.Title)
		if task.Description != nil {
			line += " - " + *task.Description
		}
		fmt.Printf("%s [%s]\n", line, task.CreatedAt.Local().Format("2006-01-02 15:04"))
	}
	return nil
}

func handleDoneCommand(ctx context.Context, api *client.Client, args []string) error {
	doneCmd := flag.NewFlagSet("done", flag.ExitOnError)
	id := doneCmd.Int64("id", 0, "Task ID to mark as done")
	doneCmd.Parse(args)

	if *id == 0 {
		return fmt.Errorf("--id is required")
	}

	done, err := api.MarkDone(ctx, *id)
	if err != nil {
		return err
	}

	fmt.Printf("Task %d (%s) marked as done\n", done.ID, done.Title)
	return nil
}

func handleExportCommand(ctx context.Context, api *client.Client, args []string) error {
	exportCmd := flag.NewFlagSet("export", flag.ExitOnError)
	format := exportCmd.String("format", "json", "Export format (json|csv)")
	outFile := exportCmd.String("out", "", "Output file path")
	exportCmd.Parse(args)

	if *outFile == "" {
		return fmt.Errorf("--out is required")
	}

	tasks, err := api.ListTasks(ctx)
	if err != nil {
		return err
	}

	switch *format {
	case "json":
		err = models.SaveJSON(*outFile, tasks)
	case "csv":
		err = models.SaveCSV(*outFile, tasks)
	default:
		return fmt.Errorf("unsupported format %s", *format)
	}
	if err != nil {
		return err
	}

	fmt.Printf("%d tasks exported to %s in %s format\n", len(tasks), *outFile, *format)
	return nil
}

func printHelp() {
	fmt.Println(`Usage: todo <command> [flags]

Commands:
  add     --title="..." [--desc="..."]   Add new task
  list                                   List up to 5 most recent open tasks
  done    --id=ID                        Mark task as done
  export  --format=json|csv --out=FILE   Export the open task list

Server:
  The CLI talks to the HTTP API at API_BASE_URL (default http://localhost:4000/api).`)
}
