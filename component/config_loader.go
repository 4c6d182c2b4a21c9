package component

// ConfigLoader read-only view of the merged configuration.
// Components pull their own section instead of receiving a global config struct:
//
//	var cfg jwt.Config
//	if err := loader.Unmarshal("jwt", &cfg); err != nil {
//	    return err
//	}
type ConfigLoader interface {
	Get(key string) interface{}
	Unmarshal(key string, v interface{}) error
	GetString(key string) string
	GetInt(key string) int
	GetBool(key string) bool
	IsSet(key string) bool
}
