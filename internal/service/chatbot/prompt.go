package chatbot

import (
	"regexp"
	"strings"
)

type questionType string

const (
	questionGeneral   questionType = "GENERAL_KNOWLEDGE"
	questionRide      questionType = "RIDE_RELATED"
	questionAccount   questionType = "ACCOUNT_RELATED"
	questionFeature   questionType = "FEATURE_RELATED"
	questionAmbiguous questionType = "AMBIGUOUS"
)

var generalQuestion = regexp.MustCompile(`\b(what is|what are|how|why|tell me|explain)\b`)

func classify(message string) questionType {
	m := strings.ToLower(message)
	has := func(words ...string) bool {
		for _, w := range words {
			if strings.Contains(m, w) {
				return true
			}
		}
		return false
	}

	switch {
	case has("distance between") && !has("my ride", "my journey"):
		return questionGeneral
	case generalQuestion.MatchString(m) && !has("ride", "booking", "my"):
		return questionGeneral
	case has("ride", "booking", "journey", "driver", "passenger", "route"):
		return questionRide
	case has("credit", "rating", "profile", "account", "history"):
		return questionAccount
	case has("how do i", "how to", "can i", "feature", "help"):
		return questionFeature
	}
	return questionAmbiguous
}

var rulesByType = map[questionType]string{
	questionGeneral: "GENERAL KNOWLEDGE QUESTION:\n" +
		"1. Answer factual questions directly and accurately\n" +
		"2. Use your general knowledge, not only HomeRide data\n" +
		"3. For questions like 'distance between cities', give accurate geographic information\n" +
		"4. If the question is about HomeRide features, mention it is a ride-sharing app\n",
	questionRide: "RIDE-RELATED QUESTION:\n" +
		"1. Use EXACT data from the user's rides: prices in ₹, distances in km, times in HH:mm\n" +
		"2. When a route is mentioned, identify that specific ride\n" +
		"3. Give complete journey details: origin, destination, stopovers, distance, duration, driver name and rating\n" +
		"4. Be specific with numbers and do not round or estimate\n",
	questionAccount: "ACCOUNT-RELATED QUESTION:\n" +
		"1. Reference the user's rating, travel credit and ride history\n" +
		"2. Give specific numbers from their profile\n" +
		"3. Be encouraging about their HomeRide journey\n",
	questionFeature: "FEATURE/HELP QUESTION:\n" +
		"1. Explain HomeRide features step by step\n" +
		"2. Use simple language for how-to questions\n" +
		"3. Reference their specific situation if relevant\n",
	questionAmbiguous: "MIXED/AMBIGUOUS QUESTION:\n" +
		"1. Address all aspects of the question\n" +
		"2. Use ride data when relevant and general knowledge when needed\n",
}

const commonRules = "\nCOMMON RULES:\n" +
	"1. Be warm and genuinely helpful\n" +
	"2. If you don't have information about something, say so clearly\n" +
	"3. Suggest relevant features based on their history when appropriate\n" +
	"4. Keep responses concise but informative\n"

func buildPrompt(userContext string, kind questionType, message string) string {
	var b strings.Builder
	b.WriteString("You are the AI assistant for HomeRide, a carpooling app for colleagues travelling home. ")
	b.WriteString("You have access to relevant user data below when applicable.\n\n")
	b.WriteString(userContext)
	b.WriteString("\n\n")
	b.WriteString(rulesByType[kind])
	b.WriteString(commonRules)
	b.WriteString("\n\nUser message: ")
	b.WriteString(message)
	return b.String()
}
