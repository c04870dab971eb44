package response

type Error struct {
	Error  string         `json:"error"`
	Fields []Field        `json:"fields,omitempty"`
	Usage  map[string]int `json:"usage,omitempty"`
}

type Field struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}
