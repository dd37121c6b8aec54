package embervk

import "fmt"

//Property keys recognized by the engine config. FenceTimeoutMS bounds every
//CPU side fence wait, exceeding it is treated as device loss.
const (
	PropDisplay        = "Display"
	PropFenceTimeoutMS = "FenceTimeoutMS"
	PropValidation     = "Validation"
)

//DefaultFenceTimeoutMS is the bounded wait applied when the config carries no
//explicit timeout
const DefaultFenceTimeoutMS = 1000

//Usage is the engine property bag. Corresponds to JSON object notation and
//should be extendable to JSON parsing implementations. Tunables that gate the
//frame loop (fence timeout, validation) ride in the typed prop maps rather
//than in package globals.
type Usage struct {
	Name         string
	String_props map[string]string
	Int_props    map[string]int
	Bool_props   map[string]bool
	Float_props  map[string]float32
	Linked_usage *Usage
}

func NewUsage(name string, default_size uint) *Usage {
	var use Usage
	use.Name = name
	use.String_props = make(map[string]string, default_size)
	use.Int_props = make(map[string]int, default_size)
	use.Bool_props = make(map[string]bool, default_size)
	use.Float_props = make(map[string]float32, default_size)
	return &use
}

//IntOr returns the named int prop or the fallback when absent
func (u *Usage) IntOr(key string, fallback int) int {
	if v, ok := u.Int_props[key]; ok {
		return v
	}
	return fallback
}

func (u *Usage) HasNext() bool {
	return u.Linked_usage != nil
}

func (u *Usage) GetLinkedUsage() (*Usage, error) {
	if !u.HasNext() {
		return nil, fmt.Errorf("Properties %s has no linked usage\n", u.Name)
	}
	return u.Linked_usage, nil
}

//Prints usage tree
func (u *Usage) Print() {
	fmt.Print(u.String_props)
	fmt.Print(u.Bool_props)
	fmt.Print(u.Int_props)
	fmt.Print(u.Float_props)
	if u.HasNext() {
		u.Linked_usage.Print()
	}
}
