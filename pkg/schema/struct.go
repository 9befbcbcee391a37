package schema

// Struct is a Record that additionally supports anonymous (empty-name) and
// hidden fields. Record already implements both — an anonymous FieldDef is
// skipped in FieldNames/Snapshot but still read/written in declared order,
// and Hide marks named fields the same way — so Struct needs no separate
// type, only a name schemas written in the Struct idiom can use.
type Struct = Record

// NewStructProto is NewRecordProto under the name the Struct idiom uses.
func NewStructProto(tag string, fields []FieldDef, hide []string) (*RecordProto, error) {
	return NewRecordProto(tag, fields, hide)
}
