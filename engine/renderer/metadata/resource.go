package metadata

type ResourceType int

/** @brief Pre-defined resource types. */
const (
	/** @brief Unknown or unsupported resource. */
	ResourceTypeNone ResourceType = iota
	/** @brief Command plan resource type (a toml file describing passes and images). */
	ResourceTypePlan
)

func (r ResourceType) String() string {
	switch r {
	case ResourceTypePlan:
		return "plan"
	default:
		return "none"
	}
}

/**
 * @brief A generic structure for a resource. All resource loaders
 * load data into these.
 */
type Resource struct {
	/** @brief The name of the resource. */
	Name string
	/** @brief The full file path of the resource. */
	FullPath string
	/** @brief The resource type. */
	Type ResourceType
	/** @brief The size of the resource data in bytes. */
	DataSize uint64
	/** @brief The resource data. */
	Data interface{}
}
