package learning

// seedCorpus returns the bootstrap training set used when no corpus
// has been persisted yet. It is deliberately small; real examples
// added through moderator feedback quickly dominate it.
func seedCorpus() corpus {
	return corpus{
		Spam: []string{
			"🚀 100x guaranteed profit! Join now before it's too late",
			"DM me for exclusive trading signals, guaranteed returns daily",
			"Congratulations! You won $500, click here to claim your prize",
			"Free airdrop! Connect your wallet now and claim tokens",
			"Make $300 per day working from home, message me for details",
			"⚡ Limited time casino bonus, free spins on your balance",
			"We are recruiting 2-3 people for a remote online project, write me",
			"Hurry up! Activate the promo code and get $200 free",
			"Invest with me and earn 50% weekly returns, fully legit",
			"Join my team, earnings from $120 per day, simple tasks, DM now",
			"Best forex signals, 95% win rate, contact @tradeguru for access",
			"URGENT: validate your wallet or your funds will be frozen",
			"New players bonus!!! Click the link and win big today 💰💰",
			"I made $5000 last week thanks to this amazing trading bot",
		},
		Ham: []string{
			"How do I withdraw my funds to a bank account?",
			"What is the current fee for spot trading?",
			"Thanks for the explanation, that makes sense now",
			"I think the market will recover next quarter",
			"Can someone explain how staking rewards are calculated?",
			"The app update fixed the chart loading issue for me",
			"When is the maintenance window scheduled?",
			"I agree with the earlier point about risk management",
			"What do you all think about the new listing?",
			"My deposit took about ten minutes to show up",
			"Is there a referral program for this exchange?",
			"According to the docs the limit resets at midnight UTC",
			"Good morning everyone, hope you have a great day",
			"Could you share the link to the official announcement?",
		},
	}
}
