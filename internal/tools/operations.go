package tools

const (
	defaultSource     = "text"
	defaultMaxResults = 10
	defaultLastN      = 10
)

// AddMemoryArgs are the arguments forwarded for add_memory.
type AddMemoryArgs struct {
	Name              string  `json:"name"`
	EpisodeBody       string  `json:"episode_body"`
	Source            string  `json:"source"`
	SourceDescription string  `json:"source_description"`
	GroupID           *string `json:"group_id,omitempty"`
}

func (a *AddMemoryArgs) applyDefaults() {
	if a.Source == "" {
		a.Source = defaultSource
	}
}

// SearchFactsArgs are the arguments forwarded for search_memory_facts.
type SearchFactsArgs struct {
	Query    string `json:"query"`
	MaxFacts int    `json:"max_facts"`
	// GroupIDs is nil when omitted; an explicit empty list is forwarded as [].
	GroupIDs *[]string `json:"group_ids,omitempty"`
}

func (a *SearchFactsArgs) applyDefaults() {
	if a.MaxFacts == 0 {
		a.MaxFacts = defaultMaxResults
	}
}

// SearchNodesArgs are the arguments forwarded for search_memory_nodes.
type SearchNodesArgs struct {
	Query    string    `json:"query"`
	MaxNodes int       `json:"max_nodes"`
	GroupIDs *[]string `json:"group_ids,omitempty"`
}

func (a *SearchNodesArgs) applyDefaults() {
	if a.MaxNodes == 0 {
		a.MaxNodes = defaultMaxResults
	}
}

// GetEpisodesArgs are the arguments forwarded for get_episodes.
type GetEpisodesArgs struct {
	GroupID *string `json:"group_id,omitempty"`
	LastN   int     `json:"last_n"`
}

func (a *GetEpisodesArgs) applyDefaults() {
	if a.LastN == 0 {
		a.LastN = defaultLastN
	}
}

// MemoryOperations returns the four memory tools in registration order.
func MemoryOperations() []Operation {
	return []Operation{
		newOperation[AddMemoryArgs]("add_memory",
			"Add an episode to memory. The episode body is ingested by the knowledge graph and split into entities and facts.",
			Param{Name: "name", Type: TypeString, Required: true, Description: "Name of the episode"},
			Param{Name: "episode_body", Type: TypeString, Required: true, Description: "Content of the episode (plain text, message transcript or JSON string)"},
			Param{Name: "source", Type: TypeString, Default: defaultSource, Description: "Source type of the episode: text, json or message"},
			Param{Name: "source_description", Type: TypeString, Default: "", Description: "Description of where the episode came from"},
			Param{Name: "group_id", Type: TypeString, Description: "Group the episode belongs to; the backend default group is used when omitted"},
		),
		newOperation[SearchFactsArgs]("search_memory_facts",
			"Search memory for relevant facts (relationships between entities).",
			Param{Name: "query", Type: TypeString, Required: true, Description: "Search query"},
			Param{Name: "max_facts", Type: TypeNumber, Default: defaultMaxResults, Description: "Maximum number of facts to return"},
			Param{Name: "group_ids", Type: TypeStringArray, Description: "Restrict the search to these groups"},
		),
		newOperation[SearchNodesArgs]("search_memory_nodes",
			"Search memory for relevant entity node summaries.",
			Param{Name: "query", Type: TypeString, Required: true, Description: "Search query"},
			Param{Name: "max_nodes", Type: TypeNumber, Default: defaultMaxResults, Description: "Maximum number of nodes to return"},
			Param{Name: "group_ids", Type: TypeStringArray, Description: "Restrict the search to these groups"},
		),
		newOperation[GetEpisodesArgs]("get_episodes",
			"Get the most recent episodes for a group.",
			Param{Name: "group_id", Type: TypeString, Description: "Group to read episodes from; the backend default group is used when omitted"},
			Param{Name: "last_n", Type: TypeNumber, Default: defaultLastN, Description: "Number of most recent episodes to return"},
		),
	}
}

// DefaultRegistry returns the registry of memory tools.
func DefaultRegistry() *Registry {
	r, err := NewRegistry(MemoryOperations()...)
	if err != nil {
		// names above are static and unique
		panic(err)
	}
	return r
}
