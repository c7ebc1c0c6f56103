package handler

import (
	"fmt"

	"github.com/slack-go/slack"

	"github.com/flowloom/engine/internal/engineerr"
	"github.com/flowloom/engine/internal/types"
	"github.com/flowloom/engine/internal/value"
)

// slackHandler implements the slack kind (spec §4.3): resource ∈
// {message, channel, user}, API key from credential or SLACK_TOKEN.
// sendAndWait returns the {__wait:true,...} branch-termination marker that
// signals the driver to suspend (spec §4.6), grounded on
// haasonsaas-nexus/internal/channels/slack/adapter.go's slack-go usage.
type slackHandler struct{}

func (slackHandler) Kind() string { return "slack" }

func (h slackHandler) Execute(ectx EngineContext, node types.Node, input value.Value) (value.Value, error) {
	apiKey, err := resolveAPIKey(ectx, node.Config, "SLACK_TOKEN")
	if err != nil {
		return value.Null(), err
	}
	client := slack.New(apiKey)

	resource := configStringDefault(node.Config, "resource", "message")
	switch resource {
	case "message":
		return h.message(ectx, client, node.Config, input)
	case "channel":
		return h.channel(ectx, client, node.Config, input)
	case "user":
		return h.user(ectx, client, node.Config, input)
	default:
		return value.Null(), engineerr.Config("unsupported slack resource " + resource)
	}
}

func (h slackHandler) message(ectx EngineContext, client *slack.Client, cfg, input value.Value) (value.Value, error) {
	channel := value.Interpolate(configStringDefault(cfg, "channel", ""), input)
	if channel == "" {
		return value.Null(), engineerr.MissingField("channel")
	}
	text := value.Interpolate(configStringDefault(cfg, "text", ""), input)

	operation := configStringDefault(cfg, "operation", "post")
	switch operation {
	case "post":
		_, ts, err := client.PostMessageContext(ectx.Context(), channel, slack.MsgOptionText(text, false))
		if err != nil {
			return value.Null(), engineerr.External("Slack API Error", err.Error(), err)
		}
		out := value.NewObject()
		out.Set("channel", value.String(channel))
		out.Set("ts", value.String(ts))
		return out, nil

	case "postEphemeral":
		user, _ := configString(cfg, "user")
		ts, err := client.PostEphemeralContext(ectx.Context(), channel, user, slack.MsgOptionText(text, false))
		if err != nil {
			return value.Null(), engineerr.External("Slack API Error", err.Error(), err)
		}
		out := value.NewObject()
		out.Set("channel", value.String(channel))
		out.Set("ts", value.String(ts))
		return out, nil

	case "update":
		ts, ok := configString(cfg, "ts")
		if !ok {
			return value.Null(), engineerr.MissingField("ts")
		}
		_, newTS, _, err := client.UpdateMessageContext(ectx.Context(), channel, ts, slack.MsgOptionText(text, false))
		if err != nil {
			return value.Null(), engineerr.External("Slack API Error", err.Error(), err)
		}
		out := value.NewObject()
		out.Set("channel", value.String(channel))
		out.Set("ts", value.String(newTS))
		return out, nil

	case "delete":
		ts, ok := configString(cfg, "ts")
		if !ok {
			return value.Null(), engineerr.MissingField("ts")
		}
		_, _, err := client.DeleteMessageContext(ectx.Context(), channel, ts)
		if err != nil {
			return value.Null(), engineerr.External("Slack API Error", err.Error(), err)
		}
		out := value.NewObject()
		out.Set("deleted", value.Bool(true))
		return out, nil

	case "search":
		query := value.Interpolate(configStringDefault(cfg, "query", ""), input)
		results, err := client.SearchMessagesContext(ectx.Context(), query, slack.NewSearchParameters())
		if err != nil {
			return value.Null(), engineerr.External("Slack API Error", err.Error(), err)
		}
		items := make([]value.Value, 0, len(results.Matches))
		for _, m := range results.Matches {
			item := value.NewObject()
			item.Set("channel", value.String(m.Channel.ID))
			item.Set("ts", value.String(m.Timestamp))
			item.Set("text", value.String(m.Text))
			items = append(items, item)
		}
		return value.Array(items...), nil

	case "sendAndWait":
		return h.sendAndWait(ectx, client, cfg, channel, text)

	default:
		return value.Null(), engineerr.Config("unsupported slack message operation " + operation)
	}
}

func (h slackHandler) sendAndWait(ectx EngineContext, client *slack.Client, cfg value.Value, channel, text string) (value.Value, error) {
	var opts []slack.MsgOption
	if blocksField, ok := cfg.Get("blocks"); ok && blocksField.IsString() {
		opts = append(opts, slack.MsgOptionBlocks(
			slack.NewSectionBlock(slack.NewTextBlockObject("mrkdwn", blocksField.Str(), false, false), nil, nil),
		))
	} else {
		approve := slack.NewButtonBlockElement("approve", "approve", slack.NewTextBlockObject("plain_text", "Approve", false, false))
		reject := slack.NewButtonBlockElement("reject", "reject", slack.NewTextBlockObject("plain_text", "Reject", false, false))
		opts = append(opts,
			slack.MsgOptionText(text, false),
			slack.MsgOptionBlocks(slack.NewActionBlock("approval", approve, reject)),
		)
	}

	_, ts, err := client.PostMessageContext(ectx.Context(), channel, opts...)
	if err != nil {
		return value.Null(), engineerr.External("Slack API Error", err.Error(), err)
	}

	out := value.NewObject()
	out.Set("__wait", value.Bool(true))
	out.Set("type", value.String("slack_interactive"))
	out.Set("channel", value.String(channel))
	out.Set("ts", value.String(ts))
	return out, nil
}

func (slackHandler) channel(ectx EngineContext, client *slack.Client, cfg, input value.Value) (value.Value, error) {
	channelID := value.Interpolate(configStringDefault(cfg, "channel", ""), input)
	if channelID == "" {
		return value.Null(), engineerr.MissingField("channel")
	}
	operation := configStringDefault(cfg, "operation", "info")
	switch operation {
	case "info":
		info, err := client.GetConversationInfoContext(ectx.Context(), &slack.GetConversationInfoInput{ChannelID: channelID})
		if err != nil {
			return value.Null(), engineerr.External("Slack API Error", err.Error(), err)
		}
		out := value.NewObject()
		out.Set("id", value.String(info.ID))
		out.Set("name", value.String(info.Name))
		out.Set("isArchived", value.Bool(info.IsArchived))
		return out, nil
	case "create":
		name, ok := configString(cfg, "name")
		if !ok {
			return value.Null(), engineerr.MissingField("name")
		}
		created, err := client.CreateConversationContext(ectx.Context(), slack.CreateConversationParams{ChannelName: name})
		if err != nil {
			return value.Null(), engineerr.External("Slack API Error", err.Error(), err)
		}
		out := value.NewObject()
		out.Set("id", value.String(created.ID))
		out.Set("name", value.String(created.Name))
		return out, nil
	case "archive":
		if err := client.ArchiveConversationContext(ectx.Context(), channelID); err != nil {
			return value.Null(), engineerr.External("Slack API Error", err.Error(), err)
		}
		out := value.NewObject()
		out.Set("archived", value.Bool(true))
		return out, nil
	default:
		return value.Null(), engineerr.Config("unsupported slack channel operation " + operation)
	}
}

func (slackHandler) user(ectx EngineContext, client *slack.Client, cfg, input value.Value) (value.Value, error) {
	userID := value.Interpolate(configStringDefault(cfg, "user", ""), input)
	if userID == "" {
		return value.Null(), engineerr.MissingField("user")
	}
	operation := configStringDefault(cfg, "operation", "info")
	if operation != "info" {
		return value.Null(), engineerr.Config(fmt.Sprintf("unsupported slack user operation %s", operation))
	}

	info, err := client.GetUserInfoContext(ectx.Context(), userID)
	if err != nil {
		return value.Null(), engineerr.External("Slack API Error", err.Error(), err)
	}
	out := value.NewObject()
	out.Set("id", value.String(info.ID))
	out.Set("name", value.String(info.Name))
	out.Set("realName", value.String(info.RealName))
	out.Set("email", value.String(info.Profile.Email))
	return out, nil
}
