// Command coursectl inspects a running courseware API server from the terminal.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"

	"courseware/internal/models"
)

const defaultBaseURL = "http://127.0.0.1:8080"

func main() {
	baseURL := flag.String("base-url", "", "base URL of the courseware API server")
	timeout := flag.Duration("timeout", 10*time.Second, "timeout for API requests")
	flag.Usage = usage
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		usage()
		os.Exit(2)
	}

	client := &apiClient{
		baseURL: resolveBaseURL(*baseURL),
		http:    &http.Client{Timeout: *timeout},
	}

	var err error
	switch args[0] {
	case "courses":
		err = client.listCourses(os.Stdout)
	case "course":
		if len(args) < 2 {
			err = fmt.Errorf("usage: coursectl course <id>")
		} else {
			err = client.showCourse(os.Stdout, args[1])
		}
	case "sessions":
		if len(args) < 2 {
			err = fmt.Errorf("usage: coursectl sessions <course-id>")
		} else {
			err = client.listSessions(os.Stdout, args[1])
		}
	case "health":
		err = client.health(os.Stdout)
	default:
		usage()
		os.Exit(2)
	}
	if err != nil {
		color.Red("error: %v", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "Usage: coursectl [flags] <command>")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "Commands:")
	fmt.Fprintln(os.Stderr, "  courses               list all courses")
	fmt.Fprintln(os.Stderr, "  course <id>           show one course with its modules")
	fmt.Fprintln(os.Stderr, "  sessions <course-id>  list the sessions of a course")
	fmt.Fprintln(os.Stderr, "  health                check server health")
	fmt.Fprintln(os.Stderr, "")
	flag.PrintDefaults()
}

func resolveBaseURL(flagValue string) string {
	base := strings.TrimSpace(flagValue)
	if base == "" {
		base = strings.TrimSpace(os.Getenv("COURSEWARE_API_URL"))
	}
	if base == "" {
		base = defaultBaseURL
	}
	return strings.TrimRight(base, "/")
}

type apiClient struct {
	baseURL string
	http    *http.Client
}

func (c *apiClient) get(path string, out any) error {
	resp, err := c.http.Get(c.baseURL + path)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		var payload struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(body, &payload) == nil && payload.Error != "" {
			return fmt.Errorf("%s: %s", resp.Status, payload.Error)
		}
		return fmt.Errorf("unexpected status %s", resp.Status)
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (c *apiClient) listCourses(w io.Writer) error {
	var payload struct {
		Courses []models.Course `json:"courses"`
	}
	if err := c.get("/api/courses", &payload); err != nil {
		return err
	}

	color.Cyan("Courses (%d)", len(payload.Courses))
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"ID", "Code", "Title", "Instructor", "Sessions", "Updated"})
	for _, course := range payload.Courses {
		table.Append([]string{
			strconv.FormatInt(course.ID, 10),
			course.Code,
			course.Title,
			course.Instructor,
			strconv.Itoa(len(course.Sessions())),
			course.UpdatedAt.Local().Format("2006-01-02 15:04"),
		})
	}
	table.Render()
	return nil
}

func (c *apiClient) showCourse(w io.Writer, rawID string) error {
	id, err := strconv.ParseInt(rawID, 10, 64)
	if err != nil || id <= 0 {
		return fmt.Errorf("invalid course id %q", rawID)
	}

	var course models.Course
	if err := c.get("/api/courses/"+url.PathEscape(rawID), &course); err != nil {
		return err
	}

	color.Cyan("%s (%d)", course.Title, course.ID)
	if course.Description != "" {
		fmt.Fprintln(w, course.Description)
	}
	if course.Instructor != "" {
		fmt.Fprintf(w, "Instructor: %s\n", course.Instructor)
	}

	for _, module := range course.Modules {
		color.Yellow("\n%s", module.Title)
		table := tablewriter.NewWriter(w)
		table.SetHeader([]string{"ID", "Title", "Starts", "Minutes", "Location"})
		for _, session := range module.Sessions {
			table.Append(sessionRow(session))
		}
		table.Render()
	}
	return nil
}

func (c *apiClient) listSessions(w io.Writer, rawID string) error {
	id, err := strconv.ParseInt(rawID, 10, 64)
	if err != nil || id <= 0 {
		return fmt.Errorf("invalid course id %q", rawID)
	}

	var payload struct {
		Sessions []models.Session `json:"sessions"`
	}
	if err := c.get("/api/courses/"+url.PathEscape(rawID)+"/sessions", &payload); err != nil {
		return err
	}

	color.Cyan("Sessions (%d)", len(payload.Sessions))
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"ID", "Title", "Starts", "Minutes", "Location"})
	for _, session := range payload.Sessions {
		table.Append(sessionRow(session))
	}
	table.Render()
	return nil
}

func (c *apiClient) health(w io.Writer) error {
	var payload struct {
		Status string `json:"status"`
	}
	if err := c.get("/healthz", &payload); err != nil {
		return err
	}
	if payload.Status == "ok" {
		color.Green("server healthy")
	} else {
		color.Yellow("server status: %s", payload.Status)
	}
	return nil
}

func sessionRow(session models.Session) []string {
	starts := ""
	if session.StartsAt != nil {
		starts = session.StartsAt.Local().Format("2006-01-02 15:04")
	}
	return []string{
		strconv.FormatInt(session.ID, 10),
		session.Title,
		starts,
		strconv.Itoa(session.DurationMinutes),
		session.Location,
	}
}
