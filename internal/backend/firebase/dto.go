package firebase

// Identity Toolkit request/response shapes

type passwordRequest struct {
	Email             string `json:"email"`
	Password          string `json:"password"`
	ReturnSecureToken bool   `json:"returnSecureToken"`
}

// AuthResponse is returned by accounts:signInWithPassword and accounts:signUp
type AuthResponse struct {
	IDToken      string `json:"idToken"`
	Email        string `json:"email"`
	RefreshToken string `json:"refreshToken"`
	ExpiresIn    string `json:"expiresIn"`
	LocalID      string `json:"localId"`
}

// RefreshResponse is returned by the securetoken token endpoint
type RefreshResponse struct {
	IDToken      string `json:"id_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    string `json:"expires_in"`
	UserID       string `json:"user_id"`
}

// ErrorResponse is the error envelope shared by Google REST APIs
type ErrorResponse struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

// Firestore REST shapes

// Value is a Firestore typed value. Exactly one field is set.
type Value struct {
	NullValue      *string     `json:"nullValue,omitempty"`
	BooleanValue   *bool       `json:"booleanValue,omitempty"`
	IntegerValue   *string     `json:"integerValue,omitempty"`
	DoubleValue    *float64    `json:"doubleValue,omitempty"`
	StringValue    *string     `json:"stringValue,omitempty"`
	TimestampValue *string     `json:"timestampValue,omitempty"`
	MapValue       *MapValue   `json:"mapValue,omitempty"`
	ArrayValue     *ArrayValue `json:"arrayValue,omitempty"`
}

// MapValue is a nested object
type MapValue struct {
	Fields map[string]Value `json:"fields,omitempty"`
}

// ArrayValue is a list of values
type ArrayValue struct {
	Values []Value `json:"values,omitempty"`
}

// Document is a stored Firestore document
type Document struct {
	Name       string           `json:"name,omitempty"`
	Fields     map[string]Value `json:"fields"`
	CreateTime string           `json:"createTime,omitempty"`
	UpdateTime string           `json:"updateTime,omitempty"`
}

type runQueryRequest struct {
	StructuredQuery structuredQuery `json:"structuredQuery"`
}

type structuredQuery struct {
	From  []collectionSelector `json:"from"`
	Where *filter              `json:"where,omitempty"`
}

type collectionSelector struct {
	CollectionID string `json:"collectionId"`
}

type filter struct {
	FieldFilter *fieldFilter `json:"fieldFilter,omitempty"`
}

type fieldFilter struct {
	Field fieldReference `json:"field"`
	Op    string         `json:"op"`
	Value Value          `json:"value"`
}

type fieldReference struct {
	FieldPath string `json:"fieldPath"`
}

// runQueryResult is one element of the runQuery response stream. Elements
// without a document only report progress.
type runQueryResult struct {
	Document *Document `json:"document,omitempty"`
	ReadTime string    `json:"readTime,omitempty"`
}
