package delivery

import (
	"fmt"
	"strings"
	"text/template"

	"github.com/ecosante/ecosante-go/internal/datastore"
	"github.com/ecosante/ecosante-go/internal/newsletter"
)

// mailTemplate is the long form message body. SMS profiles get the bare
// SMS-length recommendation text instead.
const mailTemplate = `Bonjour,

Qualité de l'air à {{.VILLE}} : {{.QUALITE_AIR}}{{if .POLLUANTS}}
Épisode de pollution {{.POLLUANTS}} en cours.{{end}}

{{.RECOMMANDATION}}{{if .PRECISIONS}}

{{.PRECISIONS}}{{end}}

Donnez votre avis sur cette recommandation : https://ecosante.beta.gouv.fr/avis/{{.SHORT_ID}}
`

var compiledMailTemplate = template.Must(template.New("mail").Parse(mailTemplate))

// Render produces the outgoing message body for a newsletter.
func Render(n *newsletter.Newsletter) (string, error) {
	if n.Profile.Channel == datastore.ChannelSMS {
		content := n.Content()
		if content == "" {
			return "", fmt.Errorf("recommendation %d has no SMS variant", n.Recommendation.ID)
		}
		return content, nil
	}

	var sb strings.Builder
	if err := compiledMailTemplate.Execute(&sb, n.Attributes()); err != nil {
		return "", fmt.Errorf("rendering mail template: %w", err)
	}
	return sb.String(), nil
}
