package orchestrators

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"squadxp/internal/domain/athlete"
)

// SaveAthleteInput carries identity fields a coach may edit.
type SaveAthleteInput struct {
	ID     string `json:"id"` // optional: empty creates a new athlete
	Name   string `json:"name"`
	Group  string `json:"group"`
	Age    int    `json:"age"`
	Gender string `json:"gender"`
}

// ExecuteSaveAthlete creates an athlete or edits an existing one's identity.
// Gamification state is never taken from input.
// PRE: Name and Group are non-empty
// POST: Athlete stored in Group; a group change moves the athlete with its state
func ExecuteSaveAthlete(ctx context.Context, input SaveAthleteInput, deps EngineDeps) (athlete.Athlete, error) {
	defer deps.lock()()

	group := strings.TrimSpace(input.Group)
	var a athlete.Athlete
	oldGroup := ""
	if input.ID != "" {
		found, err := deps.Roster.FindAthlete(ctx, input.ID)
		switch {
		case err == nil:
			a = found
			oldGroup = found.Group
		case isNotFound(err):
			a.ID = input.ID
		default:
			return athlete.Athlete{}, fmt.Errorf("find athlete: %w", err)
		}
	} else {
		a.ID = deps.newID()
	}
	a.Name = strings.TrimSpace(input.Name)
	a.Group = group
	a.Age = input.Age
	a.Gender = strings.TrimSpace(input.Gender)
	if err := a.Validate(); err != nil {
		return athlete.Athlete{}, err
	}

	now := deps.Clock.Now()
	if oldGroup != "" && oldGroup != group {
		rest, err := removeFromGroup(ctx, deps, oldGroup, a.ID)
		if err != nil {
			return athlete.Athlete{}, err
		}
		publishGroup(ctx, deps, oldGroup, rest, now)
	}

	athletes, err := deps.Roster.GetGroup(ctx, group)
	if err != nil {
		return athlete.Athlete{}, fmt.Errorf("load group %s: %w", group, err)
	}
	if idx := indexOf(athletes, a.ID); idx >= 0 {
		athletes[idx] = a
	} else {
		athletes = append(athletes, a)
	}
	if err := deps.Roster.SaveGroup(ctx, group, athletes); err != nil {
		return athlete.Athlete{}, fmt.Errorf("save group %s: %w", group, err)
	}
	slog.Info("roster_event", "event", "athlete_saved", "athlete_id", a.ID, "group", group, "moved_from", oldGroup)
	publishGroup(ctx, deps, group, athletes, now)
	return a, nil
}

// ExecuteRemoveAthlete deletes an athlete from the roster.
// PRE: id is non-empty
// POST: Returns false when no such athlete exists
func ExecuteRemoveAthlete(ctx context.Context, id string, deps EngineDeps) (bool, error) {
	defer deps.lock()()

	found, err := deps.Roster.FindAthlete(ctx, id)
	if isNotFound(err) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("find athlete: %w", err)
	}
	rest, err := removeFromGroup(ctx, deps, found.Group, id)
	if err != nil {
		return false, err
	}
	slog.Info("roster_event", "event", "athlete_removed", "athlete_id", id, "group", found.Group)
	publishGroup(ctx, deps, found.Group, rest, deps.Clock.Now())
	return true, nil
}

func removeFromGroup(ctx context.Context, deps EngineDeps, group, id string) ([]athlete.Athlete, error) {
	athletes, err := deps.Roster.GetGroup(ctx, group)
	if err != nil {
		return nil, fmt.Errorf("load group %s: %w", group, err)
	}
	rest := athletes[:0]
	for _, a := range athletes {
		if a.ID != id {
			rest = append(rest, a)
		}
	}
	if err := deps.Roster.SaveGroup(ctx, group, rest); err != nil {
		return nil, fmt.Errorf("save group %s: %w", group, err)
	}
	return rest, nil
}
