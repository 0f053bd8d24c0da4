package domain

import "fmt"

// FullTeamThreshold is the IN count from which progress turns into a call
// to action for everyone.
const FullTeamThreshold = 9

const (
	thanksTemplate   = "Thanks %s for voting"
	fullTeamTemplate = "We are %d available players. Get ready and don't be late!!"
	timeHintTemplate = "Wrong time format, try again (ex. %s 21:30)"
	welcomeTemplate  = "Hi %s, welcome to the %s community!\n%s"
	farewellTemplate = "Bye bye %s!"
	rulesTemplate    = `I am counting daily votes to ease the organization of our gaming sessions. Don't forget to vote during the day.
Type %s 21:30 if you are available only starting 21:30 for example
Type %s if you are available all evening
Type %s if you are not available tonight
Type %s to see who is in`
)

// ProgressMessage acknowledges a vote, or rallies everyone once the IN count
// reaches FullTeamThreshold.
func ProgressMessage(voter string, players int) string {
	if players < FullTeamThreshold {
		return fmt.Sprintf(thanksTemplate, voter)
	}
	return fmt.Sprintf(fullTeamTemplate, players)
}

func TimeHint(table *CommandTable) string {
	return fmt.Sprintf(timeHintTemplate, table.Trigger(CommandIn))
}

func Rules(table *CommandTable) string {
	return fmt.Sprintf(rulesTemplate,
		table.Trigger(CommandIn),
		table.Trigger(CommandIn),
		table.Trigger(CommandOut),
		table.Trigger(CommandStatus))
}

func Welcome(name, community string, table *CommandTable) string {
	return fmt.Sprintf(welcomeTemplate, name, community, Rules(table))
}

func Farewell(name string) string {
	return fmt.Sprintf(farewellTemplate, name)
}
