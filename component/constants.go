package component

// Component names
const (
	ComponentConfig = "config"
	ComponentLogger = "logger"
	ComponentRedis  = "redis"
	ComponentJWT    = "jwt"
	ComponentAuth   = "auth"
)

// Optional marks name as an optional dependency in DependsOn
func Optional(name string) string {
	return "optional:" + name
}
