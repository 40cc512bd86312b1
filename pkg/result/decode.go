package result

import (
	"fmt"

	"github.com/go-viper/mapstructure/v2"
)

func decoder(out any) (*mapstructure.Decoder, error) {
	return mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "db",
		WeaklyTypedInput: true,
		Result:           out,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToTimeHookFunc("2006-01-02 15:04:05"),
		),
	})
}

// Decode copies the current row into out, a pointer to a struct whose
// fields carry `db:"column"` tags. Values are converted weakly, so a
// numeric string decodes into an int field.
func (r *Result) Decode(out any) error {
	row, err := r.Current()
	if err != nil {
		return err
	}
	if row == nil {
		return fmt.Errorf("decode: %w: %d", ErrOutOfRange, r.current)
	}
	dec, err := decoder(out)
	if err != nil {
		return err
	}
	if err := dec.Decode(map[string]any(row)); err != nil {
		return fmt.Errorf("decode row %d: %w", r.current, err)
	}
	return nil
}

// DecodeAll copies every row into out, a pointer to a slice of structs.
func (r *Result) DecodeAll(out any) error {
	rows, err := r.GetAll()
	if err != nil {
		return err
	}
	plain := make([]map[string]any, len(rows))
	for i, row := range rows {
		plain[i] = row
	}
	dec, err := decoder(out)
	if err != nil {
		return err
	}
	if err := dec.Decode(plain); err != nil {
		return fmt.Errorf("decode rows: %w", err)
	}
	return nil
}
