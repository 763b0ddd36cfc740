// Package dbstore implements the single-writer, in-memory JSON document
// store backing the DB service, with atomic tempfile+fsync+rename
// durability.
package dbstore

// Document is the entire persisted state: four top-level collections plus
// the internal counters map, marshalled as one JSON object. The counters
// live inside the same document rather than a sibling file, so "_counters"
// is itself just another collection alongside the rest.
type Document struct {
	UsersDev    map[string]*DevUser    `json:"Users_Dev"`
	UsersPlayer map[string]*PlayerUser `json:"Users_Player"`
	Games       map[string]*Game       `json:"Games"`
	Reviews     map[string]*Review     `json:"Reviews"`
	Counters    map[string]int64       `json:"_counters"`
}

// DevUser is one Users_Dev row.
type DevUser struct {
	Username  string `json:"username"`
	PassHash  string `json:"pass_hash"`
	PassSalt  string `json:"pass_salt"`
	CreatedAt int64  `json:"created_at"`
}

// PlayerUser is one Users_Player row.
type PlayerUser struct {
	Username    string   `json:"username"`
	PassHash    string   `json:"pass_hash"`
	PassSalt    string   `json:"pass_salt"`
	CreatedAt   int64    `json:"created_at"`
	PlayHistory []string `json:"play_history"`
}

// hasPlayed reports whether gameID is already recorded in play history.
func (p *PlayerUser) hasPlayed(gameID string) bool {
	for _, g := range p.PlayHistory {
		if g == gameID {
			return true
		}
	}
	return false
}

// VersionEntry is one immutable, appended-only version record for a Game.
type VersionEntry struct {
	Version   string `json:"version"`
	FilePath  string `json:"file_path"`
	Timestamp int64  `json:"timestamp"`
}

// Game is one Games row.
type Game struct {
	GameID        string         `json:"game_id"`
	Author        string         `json:"author"`
	Name          string         `json:"name"`
	Description   string         `json:"description"`
	Type          string         `json:"type"`
	MinPlayers    int            `json:"min_players"`
	MaxPlayers    int            `json:"max_players"`
	LatestVersion string         `json:"latest_version"`
	Versions      []VersionEntry `json:"versions"`
	RatingSum     int            `json:"rating_sum"`
	RatingCount   int            `json:"rating_count"`
	IsActive      bool           `json:"is_active"`
}

// averageRating computes rating_sum/rating_count, or 0 when count==0.
func (g *Game) averageRating() float64 {
	if g.RatingCount == 0 {
		return 0
	}
	return float64(g.RatingSum) / float64(g.RatingCount)
}

// Review is one Reviews row. Unique per (GameID, Player).
type Review struct {
	ID        int64  `json:"id"`
	GameID    string `json:"game_id"`
	Player    string `json:"player"`
	Rating    int    `json:"rating"`
	Comment   string `json:"comment"`
	Timestamp int64  `json:"timestamp"`
}

// newDocument builds an empty document with all five top-level keys present:
// a fresh or missing file initialises an empty document rather than leaving
// any collection nil.
func newDocument() *Document {
	return &Document{
		UsersDev:    make(map[string]*DevUser),
		UsersPlayer: make(map[string]*PlayerUser),
		Games:       make(map[string]*Game),
		Reviews:     make(map[string]*Review),
		Counters:    make(map[string]int64),
	}
}

// ensureCollections injects any top-level collection missing from a loaded
// document (e.g. an older file predating a new collection).
func (d *Document) ensureCollections() {
	if d.UsersDev == nil {
		d.UsersDev = make(map[string]*DevUser)
	}
	if d.UsersPlayer == nil {
		d.UsersPlayer = make(map[string]*PlayerUser)
	}
	if d.Games == nil {
		d.Games = make(map[string]*Game)
	}
	if d.Reviews == nil {
		d.Reviews = make(map[string]*Review)
	}
	if d.Counters == nil {
		d.Counters = make(map[string]int64)
	}
}

// nextID increments and returns the monotonic counter for kind ("review",
// "timestamp").
func (d *Document) nextID(kind string) int64 {
	d.Counters[kind]++
	return d.Counters[kind]
}
