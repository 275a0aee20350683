package sqlinline

// Gateway credentials kept outside the environment, keyed by provider.

const QSelectIntegrationToken = `--sql 0a3289c0-d61d-4b5e-a907-4444b1db8da9
select token
from integration_tokens
where provider = $1::text
  and token <> ''
limit 1;
`

const QUpsertIntegrationToken = `--sql 654c1ce6-2f32-4cf0-89eb-56820948c8c2
insert into integration_tokens (provider, token, properties)
values ($1::text, $2::text, coalesce($3::jsonb, '{}'::jsonb))
on conflict (provider) do update set
    token = excluded.token,
    properties = integration_tokens.properties || excluded.properties,
    updated_at = now();
`
