package app

import (
	"context"
	"sort"

	"pubquiz-service/internal/domain"
)

// Leaderboard recomputes per-participant totals from the answer history on
// demand. It is never incrementally maintained; every request walks the full
// answer set, trading efficiency for correctness at the session sizes this
// system serves. Reads are not isolated from concurrent answer writes; a
// slightly stale board is acceptable because requests are user-triggered
// refresh points, never scoring inputs.
func (s *SessionService) Leaderboard(ctx context.Context, code string) ([]domain.LeaderboardEntry, error) {
	session, err := s.sessions.FindSessionByCode(ctx, code)
	if err != nil {
		return nil, err
	}

	answers, err := s.answers.ListAnswers(ctx, session.ID)
	if err != nil {
		return nil, err
	}
	participants, err := s.participants.ListParticipants(ctx, session.ID)
	if err != nil {
		return nil, err
	}

	names := make(map[string]string, len(participants))
	order := make([]string, 0, len(participants))
	for _, p := range participants {
		names[p.ID] = p.Name
		order = append(order, p.ID)
	}

	totals := make(map[string]*domain.LeaderboardEntry)
	for _, a := range answers {
		entry, ok := totals[a.ParticipantID]
		if !ok {
			entry = &domain.LeaderboardEntry{
				ParticipantID:   a.ParticipantID,
				ParticipantName: names[a.ParticipantID],
			}
			totals[a.ParticipantID] = entry
			if _, known := names[a.ParticipantID]; !known {
				order = append(order, a.ParticipantID)
			}
		}
		entry.TotalScore += a.TotalPoints()
		entry.QuestionsAnswered++
		if a.IsCorrect {
			entry.CorrectAnswers++
		}
	}

	entries := make([]domain.LeaderboardEntry, 0, len(order))
	for _, id := range order {
		if entry, ok := totals[id]; ok {
			entries = append(entries, *entry)
		} else if name, ok := names[id]; ok {
			// Joined but answered nothing yet; still on the board.
			entries = append(entries, domain.LeaderboardEntry{ParticipantID: id, ParticipantName: name})
		}
	}

	// Stable sort by total only. Ties keep their input order and receive
	// distinct sequential ranks; there is no shared-rank handling.
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].TotalScore > entries[j].TotalScore
	})
	for i := range entries {
		entries[i].Rank = i + 1
	}
	return entries, nil
}
