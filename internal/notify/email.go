package notify

import (
	"bytes"
	"html/template"

	"github.com/ariefcatur/glam-orders/internal/money"
)

const subjectNewOrder = "New Order Received"

var orderEmail = template.Must(template.New("order").Funcs(template.FuncMap{
	"money":     money.Format,
	"orDefault": orDefault,
}).Parse(`<h2>New Order Received</h2>
<p><strong>Phone:</strong> {{orDefault .Phone}}</p>
<p><strong>Shipping Address:</strong> {{orDefault .Address}}</p>
<p><strong>Products:</strong><br>{{range $i, $it := .Cart}}{{if $i}}<br>{{end}}- {{$it.Product.Name}} (x{{$it.Quantity}}) — {{money $it.Total}}{{end}}</p>
<p><strong>Total:</strong> {{money .Total}}</p>
`))

func orDefault(s string) string {
	if s == "" {
		return "Not provided"
	}
	return s
}

// RenderOrderEmail builds the operator's HTML summary of an order.
func RenderOrderEmail(p Payload) (string, error) {
	var buf bytes.Buffer
	if err := orderEmail.Execute(&buf, p); err != nil {
		return "", err
	}
	return buf.String(), nil
}
