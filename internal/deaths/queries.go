package deaths

import (
	"context"
	"encoding/json"

	"northstar/pkg/contracts/domain"
)

// QueryClient is the slice of the API client the extractor needs.
type QueryClient interface {
	Query(ctx context.Context, operation, query string, variables map[string]interface{}, out interface{}) error
}

const fightsQuery = `
query ($code: String!) {
  reportData {
    report(code: $code) {
      fights {
        id
        name
        difficulty
        kill
        startTime
        endTime
        encounterID
      }
    }
  }
}`

const actorsQuery = `
query ($code: String!) {
  reportData {
    report(code: $code) {
      masterData {
        actors {
          id
          name
          type
        }
      }
    }
  }
}`

const deathEventsQuery = `
query ($code: String!, $startTime: Float!, $endTime: Float!, $fightIDs: [Int!]) {
  reportData {
    report(code: $code) {
      events(
        startTime: $startTime
        endTime: $endTime
        dataType: Deaths
        fightIDs: $fightIDs
      ) {
        data
        nextPageTimestamp
      }
    }
  }
}`

const damageTakenEventsQuery = `
query ($code: String!, $startTime: Float!, $endTime: Float!, $fightIDs: [Int!], $abilityID: Float) {
  reportData {
    report(code: $code) {
      events(
        startTime: $startTime
        endTime: $endTime
        dataType: DamageTaken
        fightIDs: $fightIDs
        abilityID: $abilityID
      ) {
        data
        nextPageTimestamp
      }
    }
  }
}`

// fightsData mirrors the fights query response.
type fightsData struct {
	ReportData struct {
		Report struct {
			Fights []fightNode `json:"fights"`
		} `json:"report"`
	} `json:"reportData"`
}

type fightNode struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	Difficulty  int    `json:"difficulty"`
	Kill        bool   `json:"kill"`
	StartTime   int64  `json:"startTime"`
	EndTime     int64  `json:"endTime"`
	EncounterID int    `json:"encounterID"`
}

func (f fightNode) toDomain() domain.Fight {
	return domain.Fight{
		ID:          f.ID,
		EncounterID: f.EncounterID,
		Difficulty:  f.Difficulty,
		Kill:        f.Kill,
		StartTime:   f.StartTime,
		EndTime:     f.EndTime,
	}
}

// actorsData mirrors the masterData query response.
type actorsData struct {
	ReportData struct {
		Report struct {
			MasterData struct {
				Actors []actorNode `json:"actors"`
			} `json:"masterData"`
		} `json:"report"`
	} `json:"reportData"`
}

type actorNode struct {
	ID   *int   `json:"id"`
	Name string `json:"name"`
	Type string `json:"type"`
}

// eventsData mirrors the events query response. Event payloads are kept
// raw so death and damage events can share the pagination loop.
type eventsData struct {
	ReportData struct {
		Report struct {
			Events struct {
				Data              json.RawMessage `json:"data"`
				NextPageTimestamp *float64        `json:"nextPageTimestamp"`
			} `json:"events"`
		} `json:"report"`
	} `json:"reportData"`
}

// deathEvent is one entry of a Deaths events page.
type deathEvent struct {
	TargetID             *int `json:"targetID"`
	KillingAbilityGameID int  `json:"killingAbilityGameID"`
	Fight                int  `json:"fight"`
}

// damageEvent is one entry of a DamageTaken events page.
type damageEvent struct {
	TargetID      *int  `json:"targetID"`
	AbilityGameID int   `json:"abilityGameID"`
	Amount        int64 `json:"amount"`
	Fight         int   `json:"fight"`
}
