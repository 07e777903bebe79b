// Package calendar выгружает недельную программу в формате iCalendar.
package calendar

import (
	"fmt"
	"io"
	"strings"
	"time"

	"planengine/internal/models"
)

// DefaultStartHour - час начала тренировки по умолчанию
const DefaultStartHour = 18

// Options задаёт время тренировок в течение дня
type Options struct {
	StartHour int           // 0..23, вне диапазона DefaultStartHour
	Duration  time.Duration // по умолчанию 1ч
	Reminder  int           // минут до тренировки, 0 - без напоминания
}

// DefaultOptions - тренировка в 18:00 длительностью час, без напоминания
func DefaultOptions() Options {
	return Options{StartHour: DefaultStartHour, Duration: time.Hour}
}

// Event представляет событие календаря
type Event struct {
	UID         string
	Summary     string
	Description string
	StartTime   time.Time
	EndTime     time.Time
	Reminder    int
}

// WeekEvents раскладывает тренировочные дни программы на неделю,
// начинающуюся с weekStart (понедельник). Дни отдыха и заглушки пропускаются.
func WeekEvents(program *models.WeeklyProgram, weekStart time.Time, opts Options) []Event {
	if opts.StartHour < 0 || opts.StartHour > 23 {
		opts.StartHour = DefaultStartHour
	}
	if opts.Duration <= 0 {
		opts.Duration = time.Hour
	}

	monday := time.Date(weekStart.Year(), weekStart.Month(), weekStart.Day(), opts.StartHour, 0, 0, 0, weekStart.Location())
	events := make([]Event, 0, len(program.Days))
	for _, day := range program.Days {
		if day.IsRestDay || day.IsPlaceholder() {
			continue
		}
		start := monday.AddDate(0, 0, day.DayNumber-1)
		events = append(events, Event{
			UID:         fmt.Sprintf("%s-%d@planengine", program.ID, day.DayNumber),
			Summary:     day.WorkoutName,
			Description: describe(day.Exercises),
			StartTime:   start,
			EndTime:     start.Add(opts.Duration),
			Reminder:    opts.Reminder,
		})
	}
	return events
}

func describe(exercises []models.Exercise) string {
	lines := make([]string, 0, len(exercises))
	for _, e := range exercises {
		lines = append(lines, fmt.Sprintf("%s %dx%s", e.Name, e.Sets, e.Reps))
	}
	return strings.Join(lines, "\n")
}

// Write записывает VCALENDAR с событиями, stamp идёт в DTSTAMP
func Write(w io.Writer, events []Event, stamp time.Time) error {
	var sb strings.Builder

	sb.WriteString("BEGIN:VCALENDAR\r\n")
	sb.WriteString("VERSION:2.0\r\n")
	sb.WriteString("PRODID:-//planengine//Weekly Program//EN\r\n")
	sb.WriteString("CALSCALE:GREGORIAN\r\n")
	sb.WriteString("METHOD:PUBLISH\r\n")
	sb.WriteString("X-WR-CALNAME:Workouts\r\n")

	for _, event := range events {
		sb.WriteString("BEGIN:VEVENT\r\n")
		fmt.Fprintf(&sb, "UID:%s\r\n", event.UID)
		fmt.Fprintf(&sb, "DTSTAMP:%s\r\n", formatICSTime(stamp))
		fmt.Fprintf(&sb, "DTSTART:%s\r\n", formatICSTime(event.StartTime))
		fmt.Fprintf(&sb, "DTEND:%s\r\n", formatICSTime(event.EndTime))
		fmt.Fprintf(&sb, "SUMMARY:%s\r\n", escapeICS(event.Summary))
		if event.Description != "" {
			fmt.Fprintf(&sb, "DESCRIPTION:%s\r\n", escapeICS(event.Description))
		}

		// Напоминание
		if event.Reminder > 0 {
			sb.WriteString("BEGIN:VALARM\r\n")
			sb.WriteString("ACTION:DISPLAY\r\n")
			fmt.Fprintf(&sb, "TRIGGER:-PT%dM\r\n", event.Reminder)
			fmt.Fprintf(&sb, "DESCRIPTION:%s\r\n", escapeICS(event.Summary))
			sb.WriteString("END:VALARM\r\n")
		}
		sb.WriteString("END:VEVENT\r\n")
	}

	sb.WriteString("END:VCALENDAR\r\n")

	_, err := io.WriteString(w, sb.String())
	return err
}

// WeekStart возвращает понедельник недели, содержащей t
func WeekStart(t time.Time) time.Time {
	offset := (int(t.Weekday()) + 6) % 7
	d := t.AddDate(0, 0, -offset)
	return time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, t.Location())
}

// formatICSTime форматирует время в формат iCalendar
func formatICSTime(t time.Time) string {
	return t.UTC().Format("20060102T150405Z")
}

// escapeICS экранирует специальные символы для iCalendar
func escapeICS(s string) string {
	s = strings.ReplaceAll(s, "\\", "\\\\")
	s = strings.ReplaceAll(s, ";", "\\;")
	s = strings.ReplaceAll(s, ",", "\\,")
	s = strings.ReplaceAll(s, "\n", "\\n")
	return s
}
