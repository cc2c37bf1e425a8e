// Package invite renders the demo confirmation message and its calendar-add
// links. Times are written as floating local times.
package invite

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/diagnosis/demo-scheduler/services/scheduler/internal/domain"
	"github.com/google/go-querystring/query"
)

// Duration is the fixed length of a demo.
const Duration = 30 * time.Minute

const (
	googleBase  = "https://calendar.google.com/calendar/render"
	outlookBase = "https://outlook.live.com/calendar/0/deeplink/compose"

	googleLayout  = "20060102T150405"
	outlookLayout = "2006-01-02T15:04:05"
	humanLayout   = "Mon, Jan 2 2006 at 15:04"
)

type Message struct {
	To          string `json:"to"`
	ToName      string `json:"to_name"`
	Subject     string `json:"subject"`
	Text        string `json:"text"`
	HTML        string `json:"html"`
	GoogleURL   string `json:"google_url"`
	OutlookURL  string `json:"outlook_url"`
	MeetingLink string `json:"meeting_link"`
}

type googleParams struct {
	Action   string `url:"action"`
	Text     string `url:"text"`
	Dates    string `url:"dates"`
	Details  string `url:"details"`
	Location string `url:"location,omitempty"`
}

type outlookParams struct {
	Path     string `url:"path"`
	RRU      string `url:"rru"`
	Subject  string `url:"subject"`
	StartDT  string `url:"startdt"`
	EndDT    string `url:"enddt"`
	Body     string `url:"body"`
	Location string `url:"location,omitempty"`
}

// Render builds the invite for a scheduled request. It needs a scheduled time
// and a meeting link.
func Render(r domain.BookingRequest, product string) (Message, error) {
	if !r.Status.Committed() {
		return Message{}, domain.Invalid("status", domain.ErrNotBooked)
	}
	if r.ScheduledAt == nil {
		return Message{}, domain.Invalid("scheduled_at", domain.ErrSlotRequired)
	}
	if strings.TrimSpace(r.MeetingLink) == "" {
		return Message{}, domain.Invalid("meeting_link", domain.ErrMeetingLinkRequired)
	}

	start := *r.ScheduledAt
	end := start.Add(Duration)
	title := fmt.Sprintf("%s demo with %s", product, r.FullName)
	details := fmt.Sprintf("Join the demo at %s", r.MeetingLink)

	google, err := link(googleBase, googleParams{
		Action:   "TEMPLATE",
		Text:     title,
		Dates:    start.Format(googleLayout) + "/" + end.Format(googleLayout),
		Details:  details,
		Location: r.MeetingLink,
	})
	if err != nil {
		return Message{}, err
	}
	outlook, err := link(outlookBase, outlookParams{
		Path:     "/calendar/action/compose",
		RRU:      "addevent",
		Subject:  title,
		StartDT:  start.Format(outlookLayout),
		EndDT:    end.Format(outlookLayout),
		Body:     details,
		Location: r.MeetingLink,
	})
	if err != nil {
		return Message{}, err
	}

	m := Message{
		To:          r.Email,
		ToName:      r.FullName,
		Subject:     fmt.Sprintf("Your %s demo is confirmed for %s", product, start.Format(humanLayout)),
		GoogleURL:   google,
		OutlookURL:  outlook,
		MeetingLink: r.MeetingLink,
	}
	m.Text = fmt.Sprintf(
		"Hi %s,\n\nYour %s demo is booked for %s (%d minutes).\n\nJoin here: %s\n\nAdd to Google Calendar: %s\nAdd to Outlook: %s\n",
		r.FullName, product, start.Format(humanLayout), int(Duration/time.Minute), r.MeetingLink, google, outlook,
	)

	var buf bytes.Buffer
	if err := htmlBody.Execute(&buf, struct {
		Name, Product, When, Link, Google, Outlook string
		Minutes                                    int
	}{r.FullName, product, start.Format(humanLayout), r.MeetingLink, google, outlook, int(Duration / time.Minute)}); err != nil {
		return Message{}, fmt.Errorf("render invite html: %w", err)
	}
	m.HTML = buf.String()
	return m, nil
}

func link(base string, params any) (string, error) {
	v, err := query.Values(params)
	if err != nil {
		return "", fmt.Errorf("encode calendar link: %w", err)
	}
	return base + "?" + v.Encode(), nil
}

var htmlBody = template.Must(template.New("invite").Parse(`<html><body style="font-family: Arial, sans-serif;">
<p>Hi {{.Name}},</p>
<p>Your {{.Product}} demo is booked for <strong>{{.When}}</strong> ({{.Minutes}} minutes).</p>
<p><a href="{{.Link}}" style="background:#1f6feb;color:#fff;padding:10px 18px;border-radius:6px;text-decoration:none;">Join the demo</a></p>
<p>Add it to your calendar: <a href="{{.Google}}">Google Calendar</a> | <a href="{{.Outlook}}">Outlook</a></p>
</body></html>`))
