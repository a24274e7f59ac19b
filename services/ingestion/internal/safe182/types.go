package safe182

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

const (
	ResultOK       = "00"
	ResultAuthFail = "99"
)

// Text accepts a JSON string, number, or null. The upstream is inconsistent
// about quoting numeric fields.
type Text string

func (t *Text) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*t = ""
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*t = Text(strings.TrimSpace(s))
		return nil
	}
	*t = Text(string(b))
	return nil
}

func (t Text) String() string { return string(t) }

// Int parses the value as a base-10 integer; decimals are truncated. Values
// outside the int32 range are rejected.
func (t Text) Int() (int, bool) {
	s := strings.TrimSpace(string(t))
	if s == "" {
		return 0, false
	}
	if n, err := strconv.ParseInt(s, 10, 32); err == nil {
		return int(n), true
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || f > math.MaxInt32 || f < math.MinInt32 {
		return 0, false
	}
	return int(f), true
}

// Item is one raw upstream record.
type Item struct {
	Code        Text `json:"msspsnIdntfccd"`
	Name        Text `json:"nm"`
	Age         Text `json:"age"`
	AgeNow      Text `json:"ageNow"`
	Gender      Text `json:"sexdstnDscd"`
	OccurredOn  Text `json:"occrde"`
	Address     Text `json:"occrAdres"`
	TargetCode  Text `json:"writngTrgetDscd"`
	PhotoLength Text `json:"tknphotolength"`
	Clothing    Text `json:"alldressingDscd"`
	Height      Text `json:"height"`
	Weight      Text `json:"bdwgh"`
	BodyType    Text `json:"frmDscd"`
	FaceShape   Text `json:"faceshpeDscd"`
	HairStyle   Text `json:"hairshpeDscd"`
	HairColor   Text `json:"haircolrDscd"`
}

type Response struct {
	Result     string `json:"result"`
	Msg        string `json:"msg"`
	TotalCount Text   `json:"totalCount"`
	List       []Item `json:"list"`
}

func (r *Response) OK() bool { return r != nil && r.Result == ResultOK }

// Total reports the upstream totalCount. ok is false when the field is
// missing, unparseable or not positive.
func (r *Response) Total() (n int, ok bool) {
	n, ok = r.TotalCount.Int()
	if !ok || n <= 0 {
		return 0, false
	}
	return n, true
}
