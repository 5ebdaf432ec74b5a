package strata

import (
	"os"

	"gopkg.in/yaml.v3"
)

// load strata config from a file.
//
// args:
//   - filepath: filepath refers a config file.
//
// returns *StrataConfig, error:
//
//	When loading success, returns `(*StrataConfig, nil)`.
//	Otherwise, returns `(nil, error)`.
func LoadStrataConfig(filepath string) (*StrataConfig, error) {
	content, err := os.ReadFile(filepath)
	if err != nil {
		return nil, err
	}
	return Unmarshal(content)
}

func Unmarshal(conf []byte) (out *StrataConfig, err error) {
	var _out *StrataConfigMarshall
	err = yaml.Unmarshal(conf, &_out)
	if err != nil {
		return nil, err
	}
	out = TrySeal(_out)
	return out, nil
}
