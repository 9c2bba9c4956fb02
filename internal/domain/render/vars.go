package render

import (
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"

	"github.com/okian/talentflow/internal/domain/model"
)

// Placeholder names understood by the renderer. Anything else between
// double braces is left untouched.
const (
	VarPreferredName   = "preferredName"
	VarFullName        = "fullName"
	VarSAPModule       = "sapModule"
	VarSourceContext   = "sourceContext"
	VarSenderName      = "senderName"
	VarChallengeTime   = "challengeTime"
	VarChallengeLink   = "challengeLink"
	VarChallengeTitle  = "challengeTitle"
	VarContentLink     = "contentLink"
	VarContentSummary  = "contentSummary"
	VarRelevantProject = "relevantProject"
	VarRelevantTrend   = "relevantTrend"
	VarInsightPreview  = "insightPreview"
	VarRelevantTopic   = "relevantTopic"
	VarRelevantArea    = "relevantArea"
	VarEventDetails    = "eventDetails"
	VarPreviousSubject = "previousSubject"
	VarExclusiveReward = "exclusiveReward"
	VarParticipantCnt  = "participantCount"
)

var vocabulary = map[string]struct{}{
	VarPreferredName: {}, VarFullName: {}, VarSAPModule: {}, VarSourceContext: {},
	VarSenderName: {}, VarChallengeTime: {}, VarChallengeLink: {}, VarChallengeTitle: {},
	VarContentLink: {}, VarContentSummary: {}, VarRelevantProject: {}, VarRelevantTrend: {},
	VarInsightPreview: {}, VarRelevantTopic: {}, VarRelevantArea: {}, VarEventDetails: {},
	VarPreviousSubject: {}, VarExclusiveReward: {}, VarParticipantCnt: {},
}

// Known reports whether name is a placeholder the renderer substitutes.
func Known(name string) bool {
	_, ok := vocabulary[name]
	return ok
}

// DefaultSenderName signs messages when no sender is configured.
const DefaultSenderName = "Equipe TalentFlow"

const (
	defaultChallengeTime  = "15"
	defaultChallengeTitle = "SAP Skills Assessment"
	defaultModule         = "SAP"
	defaultTopic          = "transformacao digital SAP"
	defaultArea           = "inovacao SAP"
	insightPreview        = "empresas que adotaram essa abordagem viram 40% mais agilidade"
	eventDetails          = "lideres SAP de empresas Fortune 500"
	previousSubject       = "Oportunidade SAP"
	exclusiveReward       = "mentoria 1:1 com SAP experts da Accenture"

	participantBase   = 120
	participantSpread = 200
)

var sourceContexts = map[string]string{
	"github":          "atraves das suas contribuicoes no GitHub",
	"meetup":          "em um evento da comunidade SAP",
	"linkedin":        "pelo seu perfil profissional",
	"publication":     "por uma publicacao sua que me chamou atencao",
	"consulting_firm": "pela sua trajetoria em consultoria",
	"sap_community":   "pela sua participacao na SAP Community",
	"conference":      "em uma conferencia de tecnologia",
	"university":      "pelo seu perfil academico",
	"referral":        "por indicacao de um colega",
}

// PreferredName returns the talent's preferred name, falling back to the
// first word of the full name.
func PreferredName(t *model.Talent) string {
	if n := strings.TrimSpace(t.PreferredName); n != "" {
		return n
	}
	if f := strings.Fields(t.FullName); len(f) > 0 {
		return f[0]
	}
	return ""
}

// Variables builds the substitution map. Every vocabulary name is present;
// some values may be empty.
func Variables(in Input) map[string]string {
	t := in.Talent
	module := defaultModule
	topic, area := defaultTopic, defaultArea
	if len(t.SAPModules) > 0 {
		module, topic, area = t.SAPModules[0], t.SAPModules[0], t.SAPModules[0]
	}

	sender := in.SenderName
	if sender == "" {
		sender = DefaultSenderName
	}

	vars := map[string]string{
		VarPreferredName:   PreferredName(t),
		VarFullName:        t.FullName,
		VarSAPModule:       module,
		VarSourceContext:   sourceContext(t.Source),
		VarSenderName:      sender,
		VarChallengeTime:   defaultChallengeTime,
		VarChallengeLink:   "",
		VarChallengeTitle:  defaultChallengeTitle,
		VarContentLink:     "",
		VarContentSummary:  "",
		VarRelevantProject: relevantProject(t.SAPModules),
		VarRelevantTrend:   relevantTrend(t.SAPModules),
		VarInsightPreview:  insightPreview,
		VarRelevantTopic:   topic,
		VarRelevantArea:    area,
		VarEventDetails:    eventDetails,
		VarPreviousSubject: previousSubject,
		VarExclusiveReward: exclusiveReward,
		VarParticipantCnt:  strconv.FormatUint(participantBase+xxhash.Sum64String(t.ID)%participantSpread, 10),
	}

	if c := in.Challenge; c != nil {
		if c.TimeLimit > 0 {
			vars[VarChallengeTime] = strconv.Itoa(c.TimeLimit)
		}
		vars[VarChallengeLink] = "[Aceitar Desafio: " + c.Title + "]"
		if c.Title != "" {
			vars[VarChallengeTitle] = c.Title
		}
	}
	if len(in.Content) > 0 {
		vars[VarContentLink] = "[" + in.Content[0].Title + "]"
		vars[VarContentSummary] = in.Content[0].Summary
	}
	return vars
}

func sourceContext(source string) string {
	if s, ok := sourceContexts[source]; ok {
		return s
	}
	return "pelo seu perfil"
}

func relevantProject(modules []string) string {
	switch {
	case contains(modules, "SAP S/4HANA"):
		return "migracao S/4HANA de uma das maiores varejistas do Brasil"
	case contains(modules, "SAP BTP"):
		return "plataforma de inovacao BTP para um banco lider"
	case contains(modules, "SAP Fiori"):
		return "redesign completo da experiencia do usuario para 10.000 funcionarios"
	}
	return "transformacao digital de empresas Fortune 500 no Brasil"
}

func relevantTrend(modules []string) string {
	switch {
	case contains(modules, "SAP S/4HANA"):
		return "adocao de Clean Core em empresas brasileiras"
	case contains(modules, "SAP BTP"):
		return "integracao de GenAI com SAP BTP"
	case contains(modules, "SAP ABAP"):
		return "evolucao do ABAP Cloud e RAP"
	}
	return "transformacao digital com SAP no mercado brasileiro"
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
