package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"portfolio/internal/domain"
)

// DashboardStats are the admin dashboard counters
type DashboardStats struct {
	Projects       int64
	BlogPosts      int64
	Messages       int64
	UnreadMessages int64
}

// Activity is one line of the dashboard activity feed
type Activity struct {
	Type string // message, project, blog
	Text string
	At   time.Time
	Ago  string
}

// Dashboard is everything the admin landing page shows
type Dashboard struct {
	Stats          DashboardStats
	RecentMessages []domain.ContactMessage
	RecentProjects []domain.Project
	Activity       []Activity
}

// DashboardService assembles the admin dashboard
type DashboardService struct {
	projects *ProjectService
	blog     *BlogService
	messages *MessageService
	now      func() time.Time
}

// NewDashboardService creates a new dashboard service
func NewDashboardService(projects *ProjectService, blog *BlogService, messages *MessageService) *DashboardService {
	return &DashboardService{projects: projects, blog: blog, messages: messages, now: time.Now}
}

// Load collects counts, recent records and the activity feed
func (s *DashboardService) Load(ctx context.Context) (*Dashboard, error) {
	var (
		d   Dashboard
		err error
	)
	if d.Stats.Projects, err = s.projects.Count(ctx); err != nil {
		return nil, err
	}
	if d.Stats.BlogPosts, err = s.blog.Count(ctx); err != nil {
		return nil, err
	}
	if d.Stats.Messages, d.Stats.UnreadMessages, err = s.messages.Counts(ctx); err != nil {
		return nil, err
	}
	if d.RecentMessages, err = s.messages.Recent(ctx, 5); err != nil {
		return nil, err
	}
	if d.RecentProjects, err = s.projects.Recent(ctx, 3); err != nil {
		return nil, err
	}
	posts, err := s.blog.Recent(ctx, 2)
	if err != nil {
		return nil, err
	}

	now := s.now()
	add := func(kind, text string, at time.Time) {
		d.Activity = append(d.Activity, Activity{Type: kind, Text: text, At: at, Ago: TimeSince(at, now)})
	}
	for i, m := range d.RecentMessages {
		if i == 3 {
			break
		}
		add("message", fmt.Sprintf("New message from %s: %s", m.Name, m.Subject), m.CreatedAt)
	}
	for i, p := range d.RecentProjects {
		if i == 2 {
			break
		}
		add("project", "Project created: "+p.Title, p.CreatedAt)
	}
	for _, p := range posts {
		status := "Draft"
		if p.Published {
			status = "Published"
		}
		add("blog", fmt.Sprintf("Blog post %s: %s", status, p.Title), p.CreatedAt)
	}

	sort.SliceStable(d.Activity, func(i, j int) bool {
		return d.Activity[i].At.After(d.Activity[j].At)
	})
	if len(d.Activity) > 5 {
		d.Activity = d.Activity[:5]
	}
	return &d, nil
}

// TimeSince humanises the gap between t and now: "3 minutes ago",
// "1 day ago", "Just now".
func TimeSince(t, now time.Time) string {
	diff := now.Sub(t)
	plural := func(n int, unit string) string {
		if n == 1 {
			return fmt.Sprintf("1 %s ago", unit)
		}
		return fmt.Sprintf("%d %ss ago", n, unit)
	}
	switch {
	case diff >= 24*time.Hour:
		return plural(int(diff/(24*time.Hour)), "day")
	case diff >= time.Hour:
		return plural(int(diff/time.Hour), "hour")
	case diff >= time.Minute:
		return plural(int(diff/time.Minute), "minute")
	default:
		return "Just now"
	}
}
