package types

// Operations a defect code may default to.
const (
	OperationSMTAOI = "SMT AOI"
	OperationTHAOI  = "TH AOI"
	OperationEither = "Either"
)

// DefectCode is one entry of the AOI defect dictionary. The local table is a
// cache of the remote source of truth and is overwritten wholesale on each
// sync; rows carry no versioning or conflict metadata.
type DefectCode struct {
	Code             string `json:"code" db:"code"`
	Name             string `json:"name" db:"name"`
	Description      string `json:"description,omitempty" db:"description"`
	DefaultOperation string `json:"default_operation" db:"default_operation"`
	ComponentClass   string `json:"component_class,omitempty" db:"component_class"`
	Category         string `json:"category,omitempty" db:"category"`
}
