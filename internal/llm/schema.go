package llm

import "github.com/invopop/jsonschema"

// Schema 描述期望的结构化输出。
type Schema struct {
	Name        string
	Description string
	Value       any
}

// SchemaFor 由 Go 类型反射出 strict 模式可用的 JSON schema：
// 不允许额外字段、不使用 $ref（部分兼容接口不支持引用）。
func SchemaFor[T any](name, description string) *Schema {
	r := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}
	var v T
	return &Schema{Name: name, Description: description, Value: r.Reflect(v)}
}
