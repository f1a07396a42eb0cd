package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/harrisonrobin/tasksheet/pkg/auth"
	"github.com/harrisonrobin/tasksheet/pkg/cache"
	"github.com/harrisonrobin/tasksheet/pkg/config"
	"github.com/harrisonrobin/tasksheet/pkg/model"
	"github.com/harrisonrobin/tasksheet/pkg/query"
	"github.com/harrisonrobin/tasksheet/pkg/sheets"
	"github.com/harrisonrobin/tasksheet/pkg/syncer"
)

func main() {
	// 1. Parse Flags
	doAuth := flag.Bool("auth", false, "Re-run Google authorization")
	setSpreadsheet := flag.String("set-spreadsheet", "", "Set the default spreadsheet id")

	list := flag.Bool("list", false, "List active tasks")
	sortKey := flag.String("sort", "priority", "Sort key for -list: deadline, priority, category, project, status, name")
	overdue := flag.Bool("overdue", false, "List overdue tasks")

	add := flag.String("add", "", "Add a task with the given name")
	update := flag.Int("update", 0, "Update the task with the given id")
	complete := flag.Int("complete", 0, "Mark the task with the given id completed")
	archive := flag.Int("archive", 0, "Archive the task with the given id")

	name := flag.String("name", "", "New task name (with -update)")
	deadline := flag.String("deadline", "", "Task deadline, YYYY-MM-DD")
	priority := flag.String("priority", "", "Task priority: High, Medium or Low")
	status := flag.String("status", "", "Task status (with -update)")
	categoryID := flag.Int("category", 0, "Category id")
	projectID := flag.Int("project", 0, "Project id")
	notes := flag.String("notes", "", "Task notes")
	flag.Parse()

	// .env is optional; it can carry TASKSHEET_CREDENTIALS and
	// TASKSHEET_SPREADSHEET_ID for development setups.
	_ = godotenv.Load()

	ctx := context.Background()

	// 2. Handle one-shot configuration commands
	if *setSpreadsheet != "" {
		cfg, err := config.Load()
		if err != nil {
			log.Fatalf("Error loading config: %v", err)
		}
		cfg.SpreadsheetID = *setSpreadsheet
		if err := config.Save(cfg); err != nil {
			log.Fatalf("Error saving config: %v", err)
		}
		fmt.Printf("Default spreadsheet set to: %s\n", *setSpreadsheet)
		return
	}

	if *doAuth {
		if err := auth.ResetToken(); err != nil {
			log.Fatalf("Error clearing cached token: %v", err)
		}
		if _, err := auth.NewSheetsService(ctx); err != nil {
			log.Fatalf("Authentication failed: %v", err)
		}
		log.Println("Authentication successful.")
		return
	}

	// 3. Build the engine
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Error loading config: %v", err)
	}
	spreadsheetID := cfg.SpreadsheetID
	if env := os.Getenv("TASKSHEET_SPREADSHEET_ID"); env != "" {
		spreadsheetID = env
	}
	if spreadsheetID == "" {
		log.Fatal("No spreadsheet configured. Run with -set-spreadsheet <id> first.")
	}

	srv, err := auth.NewSheetsService(ctx)
	if err != nil {
		log.Fatalf("Error building Sheets service: %v", err)
	}
	store, err := sheets.NewClient(ctx, srv, spreadsheetID, sheets.DefaultRetryPolicy)
	if err != nil {
		log.Fatalf("Error opening spreadsheet: %v", err)
	}

	coord := syncer.New(cache.NewStore(), store, syncer.Tables{
		Tasks:      cfg.TasksTab,
		Archive:    cfg.ArchiveTab,
		Categories: cfg.CategoryTab,
		Projects:   cfg.ProjectTab,
	}, syncer.Policy{
		ArchiveCompleted: cfg.ArchiveCompleted,
		RemoteTimeout:    time.Duration(cfg.RemoteTimeoutSeconds) * time.Second,
	})

	if err := coord.Load(ctx); err != nil {
		log.Fatalf("Error loading spreadsheet data: %v", err)
	}

	// 4. Dispatch
	switch {
	case *add != "":
		task, err := coord.Create(ctx, syncer.CreateInput{
			Name:       *add,
			Deadline:   *deadline,
			Priority:   *priority,
			CategoryID: *categoryID,
			ProjectID:  *projectID,
			Notes:      *notes,
		})
		if err != nil {
			log.Fatalf("Error adding task: %v", err)
		}
		fmt.Printf("Task %q added with id %d.\n", task.Name, task.ID)

	case *update != 0:
		ch := changesFromFlags(*name, *deadline, *priority, *status, *notes, *categoryID, *projectID)
		task, err := coord.Update(ctx, *update, ch)
		if err != nil {
			log.Fatalf("Error updating task %d: %v", *update, err)
		}
		fmt.Printf("Task %d updated.\n", task.ID)

	case *complete != 0:
		task, err := coord.Complete(ctx, *complete)
		if err != nil {
			log.Fatalf("Error completing task %d: %v", *complete, err)
		}
		fmt.Printf("Task %q marked as completed.\n", task.Name)

	case *archive != 0:
		if err := coord.Archive(ctx, *archive); err != nil {
			log.Fatalf("Error archiving task %d: %v", *archive, err)
		}
		fmt.Printf("Task %d archived.\n", *archive)

	case *overdue:
		printTasks(coord, query.Overdue(coord.Cache().Tasks(), time.Now()))

	case *list:
		printTasks(coord, query.Sort(coord.Cache().Tasks(), query.Key(*sortKey), query.Ascending))

	default:
		flag.Usage()
	}
}

// changesFromFlags builds an update from the flags the caller actually set.
func changesFromFlags(name, deadline, priority, status, notes string, categoryID, projectID int) syncer.Changes {
	var ch syncer.Changes
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "name":
			ch.Name = &name
		case "deadline":
			ch.Deadline = &deadline
		case "priority":
			ch.Priority = &priority
		case "status":
			ch.Status = &status
		case "notes":
			ch.Notes = &notes
		case "category":
			ch.CategoryID = &categoryID
		case "project":
			ch.ProjectID = &projectID
		}
	})
	return ch
}

func printTasks(coord *syncer.Coordinator, tasks []model.Task) {
	if len(tasks) == 0 {
		fmt.Println("No tasks found.")
		return
	}
	fmt.Printf("%-4s %-10s %-8s %-12s %-20s %s\n", "ID", "Deadline", "Priority", "Status", "Project", "Name")
	for _, t := range tasks {
		project := ""
		if p, ok := coord.Cache().Project(t.ProjectID); ok {
			project = p.Name
		}
		fmt.Printf("%-4d %-10s %-8s %-12s %-20s %s\n",
			t.ID, t.Deadline, t.Priority, t.Status, project, t.Name)
	}
}
