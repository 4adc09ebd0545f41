// Package types defines the shared data structures for the FableCore engine.
// This package contains only data definitions and small constructors, no
// engine logic.
package types

// TargetKind identifies which world table a Target addresses.
type TargetKind string

const (
	KindItem     TargetKind = "item"
	KindLocation TargetKind = "location"
	KindPlayer   TargetKind = "player"
	KindGlobal   TargetKind = "global"
	KindFuse     TargetKind = "fuse"
	KindDaemon   TargetKind = "daemon"
)

// Target addresses an entity for state reads and writes. ID is empty for
// the player and global targets.
type Target struct {
	Kind TargetKind `json:"kind"`
	ID   string     `json:"id,omitempty"`
}

func ItemTarget(id string) Target     { return Target{Kind: KindItem, ID: id} }
func LocationTarget(id string) Target { return Target{Kind: KindLocation, ID: id} }
func PlayerTarget() Target            { return Target{Kind: KindPlayer} }
func GlobalTarget() Target            { return Target{Kind: KindGlobal} }
func FuseTarget(id string) Target     { return Target{Kind: KindFuse, ID: id} }
func DaemonTarget(id string) Target   { return Target{Kind: KindDaemon, ID: id} }

// String renders a target as "kind:id" for diagnostics and history dumps.
func (t Target) String() string {
	if t.ID == "" {
		return string(t.Kind)
	}
	return string(t.Kind) + ":" + t.ID
}

// ParentKind identifies what owns an item.
type ParentKind string

const (
	ParentNowhere  ParentKind = "nowhere"
	ParentLocation ParentKind = "location"
	ParentItem     ParentKind = "item"
	ParentPlayer   ParentKind = "player"
)

// Parent is an item's single owner reference. Every item has exactly one
// parent at all times; removed items move to nowhere rather than being
// destroyed.
type Parent struct {
	Kind ParentKind `json:"kind"`
	ID   string     `json:"id,omitempty"`
}

func InLocation(id string) Parent { return Parent{Kind: ParentLocation, ID: id} }
func InItem(id string) Parent     { return Parent{Kind: ParentItem, ID: id} }
func HeldByPlayer() Parent        { return Parent{Kind: ParentPlayer} }
func Nowhere() Parent             { return Parent{Kind: ParentNowhere} }

// Built-in property keys shared across the engine. Game content may define
// arbitrary additional keys.
const (
	PropParent      = "parent" // string-encoded Parent, see EncodeParent
	PropTakable     = "takable"
	PropContainer   = "container"
	PropSurface     = "surface"
	PropOpenable    = "openable"
	PropOpen        = "open"
	PropTransparent = "transparent"
	PropLocked      = "locked"
	PropLightSource = "light_source"
	PropLit         = "lit" // locations: absent means lit
	PropScenery     = "scenery"
	PropWearable    = "wearable"
	PropWorn        = "worn"
	PropGlobal      = "global" // visible from every location
	PropText        = "text"   // readable inscription

	GlobalScore    = "score"
	GlobalMoves    = "moves"
	GlobalEnded    = "ended"
	GlobalQuitting = "quitting"
)

// ItemDef is the immutable definition of an item. Runtime property and
// parent overrides are layered on top by the state engine.
type ItemDef struct {
	ID         string           `json:"id"`
	Name       string           `json:"name"`
	Synonyms   []string         `json:"synonyms,omitempty"`
	Adjectives []string         `json:"adjectives,omitempty"`
	Parent     Parent           `json:"parent"`
	Size       int              `json:"size,omitempty"`
	Props      map[string]Value `json:"props,omitempty"`
}

// ExitDef is a single directional exit. If BlockedProp names a location
// property and that property reads true, the exit refuses with
// BlockedMessage instead of moving the player.
type ExitDef struct {
	Destination    string `json:"destination"`
	BlockedProp    string `json:"blocked_prop,omitempty"`
	BlockedMessage string `json:"blocked_message,omitempty"`
}

// LocationDef is the immutable definition of a location. Containment is not
// tracked here; items reference their location via parent, and contents
// are queried from the item table on demand.
type LocationDef struct {
	ID          string             `json:"id"`
	Name        string             `json:"name"`
	Description string             `json:"description"`
	Exits       map[string]ExitDef `json:"exits,omitempty"`
	Props       map[string]Value   `json:"props,omitempty"`
}

// GameDef holds game metadata from the content loader.
type GameDef struct {
	Title    string `json:"title"`
	Author   string `json:"author"`
	Version  string `json:"version"`
	Start    string `json:"start"`
	Intro    string `json:"intro,omitempty"`
	Capacity int    `json:"capacity,omitempty"` // carrying limit, 0 = unlimited
}

// FuseState is a one-shot countdown owned by the world tables. The payload
// is plain data so a fuse survives save and restore.
type FuseState struct {
	Turns   int              `json:"turns"`
	Payload map[string]Value `json:"payload,omitempty"`
}

// DaemonState is a recurring background event firing every Cadence turns.
type DaemonState struct {
	Cadence int `json:"cadence"`
}

// ObjectRef is one resolved object slot of a command. Items holds more than
// one ID only for "all"-style slots.
type ObjectRef struct {
	Noun       string
	Adjectives []string
	Items      []string
	All        bool
}

// Command is the parser's output: an unambiguous, fully resolved action.
type Command struct {
	Verb      string
	Direction string
	Direct    *ObjectRef
	Indirect  *ObjectRef
	Raw       string
}

// StateChange is the unit of world mutation. Old, when non-nil, is the
// expected current value; the state engine rejects the change if it does
// not match. History records carry the realized old value.
type StateChange struct {
	Target Target `json:"target"`
	Key    string `json:"key"`
	Old    *Value `json:"old,omitempty"`
	New    Value  `json:"new"`
}

// SideEffectKind enumerates the declarative scheduler instructions a
// handler may emit.
type SideEffectKind string

const (
	StartFuse  SideEffectKind = "start_fuse"
	StopFuse   SideEffectKind = "stop_fuse"
	RunDaemon  SideEffectKind = "run_daemon"
	StopDaemon SideEffectKind = "stop_daemon"
)

// SideEffect carries only identifiers and payload; the engine registers it
// with the scheduler after the same command's state changes have committed.
type SideEffect struct {
	Kind    SideEffectKind
	ID      string
	Turns   int              // StartFuse only
	Cadence int              // RunDaemon only
	Payload map[string]Value // StartFuse only
}

// Style is an optional rendering hint on an output line. The core never
// formats beyond assembling sentences; the front end decides what a hint
// looks like.
type Style string

const (
	StyleNormal   Style = ""
	StyleEmphasis Style = "emphasis"
	StyleStrong   Style = "strong"
	StyleSystem   Style = "system"
)

// Line is one line of narrative output.
type Line struct {
	Text  string
	Style Style
}

// Result is the output of a single game step.
type Result struct {
	Lines   []Line
	Changes []StateChange // changes applied this step, in order
	Ended   bool          // session reached a terminal state
}

// Texts flattens the result lines to plain strings.
func (r Result) Texts() []string {
	out := make([]string, len(r.Lines))
	for i, l := range r.Lines {
		out[i] = l.Text
	}
	return out
}
